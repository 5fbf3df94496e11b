package schedule

import (
	"slices"
	"time"

	xerrors "dairy-subscription-service/internal/pkg/errors"
)

// DefaultPeriods are the subscription lengths, in days, sold by default.
var DefaultPeriods = []int{3, 15, 30}

// Offered reports whether a pattern may be chosen for a period.
func Offered(p Pattern, periodDays int) bool {
	return periodDays > p.minPeriod()
}

// OfferedKinds lists the patterns available for a period, in display order.
func OfferedKinds(periodDays int) []PatternKind {
	all := []Pattern{Daily{}, AlternateDays{}, Day1Day2{}, SelectDays{}}
	out := make([]PatternKind, 0, len(all))
	for _, p := range all {
		if Offered(p, periodDays) {
			out = append(out, p.Kind())
		}
	}
	return out
}

// AdjustForPeriod downgrades a pattern to DAILY when the period no longer
// offers it. This mirrors the storefront resetting the choice when the
// customer shortens the period; the bool reports whether it happened.
func AdjustForPeriod(p Pattern, periodDays int) (Pattern, bool) {
	if Offered(p, periodDays) {
		return p, false
	}
	return Daily{}, true
}

// CheckPeriod rejects periods outside the sold set.
func CheckPeriod(periodDays int, allowed []int) error {
	if !slices.Contains(allowed, periodDays) {
		return xerrors.Newf("unsupported period of %d days", periodDays).
			WithHintf("period must be one of %v days", allowed).
			Mark(xerrors.ErrValidation)
	}
	return nil
}

// CheckSelection validates quantities and weekday choices, then enforces the
// period gate for the pattern.
func CheckSelection(p Pattern, q Quantities, periodDays int) error {
	if p == nil {
		return xerrors.New("recurrence pattern is required").Mark(xerrors.ErrValidation)
	}
	if err := p.validate(q); err != nil {
		return err
	}
	if !Offered(p, periodDays) {
		return xerrors.Newf("%s not offered for %d day period", p.Kind(), periodDays).
			WithHintf("%s is only available for periods longer than %d days", p.Kind(), p.minPeriod()).
			Mark(xerrors.ErrPolicy)
	}
	return nil
}

// CheckStartDate enforces the minimum lead time between today and the start date.
func CheckStartDate(start, today time.Time, leadDays int) error {
	if start.IsZero() {
		return xerrors.New("start date is required").
			WithHint("choose a start date").
			Mark(xerrors.ErrValidation)
	}
	earliest := EarliestStart(today, leadDays)
	if DateOf(start).Before(earliest) {
		return xerrors.Newf("start date %s before %s", DateOf(start).Format(time.DateOnly), earliest.Format(time.DateOnly)).
			WithHintf("earliest start date is %s", earliest.Format(time.DateOnly)).
			Mark(xerrors.ErrValidation)
	}
	return nil
}
