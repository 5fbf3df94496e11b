// internal/domain/schedule/enumerate.go
package schedule

import (
	"time"

	xerrors "dairy-subscription-service/internal/pkg/errors"
)

// Occurrence is one enumerated delivery day.
type Occurrence struct {
	Date time.Time `json:"date"`
	Slot Slot      `json:"slot"`
}

// PlannedDelivery is an occurrence with its quantity resolved.
type PlannedDelivery struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}

// Enumerate lists the delivery days in [start, start+periodDays-1] in date
// order. A SELECT_DAYS pattern that matches no day yields an empty, non-nil
// slice; callers must treat that as zero deliveries.
func Enumerate(start time.Time, periodDays int, p Pattern) ([]Occurrence, error) {
	if start.IsZero() {
		return nil, xerrors.New("start date is required").
			WithHint("choose a start date").
			Mark(xerrors.ErrValidation)
	}
	if periodDays <= 0 {
		return nil, xerrors.Newf("period of %d days", periodDays).
			WithHint("period must be a positive number of days").
			Mark(xerrors.ErrValidation)
	}
	if p == nil {
		return nil, xerrors.New("recurrence pattern is required").Mark(xerrors.ErrValidation)
	}

	first := DateOf(start)
	out := make([]Occurrence, 0, periodDays)
	for offset := 0; offset < periodDays; offset++ {
		day := first.AddDate(0, 0, offset)
		if slot, ok := p.slotAt(offset, day.Weekday()); ok {
			out = append(out, Occurrence{Date: day, Slot: slot})
		}
	}
	return out, nil
}

// Plan enumerates and assigns each occurrence its quantity.
func Plan(start time.Time, periodDays int, p Pattern, q Quantities) ([]PlannedDelivery, error) {
	occurrences, err := Enumerate(start, periodDays, p)
	if err != nil {
		return nil, err
	}
	out := make([]PlannedDelivery, len(occurrences))
	for i, o := range occurrences {
		out[i] = PlannedDelivery{Date: o.Date, Quantity: q.For(o.Slot)}
	}
	return out, nil
}

// PlanQuantities returns the per-delivery quantities of a plan.
func PlanQuantities(plan []PlannedDelivery) []int {
	out := make([]int, len(plan))
	for i, d := range plan {
		out[i] = d.Quantity
	}
	return out
}

// EndDate is the last calendar day of the window.
func EndDate(start time.Time, periodDays int) time.Time {
	return DateOf(start).AddDate(0, 0, periodDays-1)
}
