// internal/domain/schedule/pattern.go
package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"

	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/samber/lo"
)

type PatternKind string

const (
	KindDaily         PatternKind = "DAILY"
	KindAlternateDays PatternKind = "ALTERNATE_DAYS"
	KindDay1Day2      PatternKind = "DAY1_DAY2"
	KindSelectDays    PatternKind = "SELECT_DAYS"
)

// Periods must exceed these to offer the pattern.
const (
	AlternateDaysMinPeriod = 7
	Day1Day2MinPeriod      = 15
	SelectDaysMinPeriod    = 7

	MinSelectedWeekdays = 3

	// MaxQuantity bounds units per delivery on either day.
	MaxQuantity = 99
)

// Slot says which of the selection's quantities a delivery carries.
type Slot int

const (
	SlotPrimary Slot = iota
	SlotSecondary
)

func (s Slot) String() string {
	if s == SlotSecondary {
		return "secondary"
	}
	return "primary"
}

// Quantities holds the per-delivery quantities of a selection. Secondary is
// only meaningful for DAY1_DAY2.
type Quantities struct {
	Primary   int `json:"primary"`
	Secondary int `json:"secondary,omitempty"`
}

// For returns the quantity delivered for a slot.
func (q Quantities) For(s Slot) int {
	if s == SlotSecondary {
		return q.Secondary
	}
	return q.Primary
}

// Pattern is a recurrence rule. Every per-pattern concern is a method here, so
// a new pattern cannot compile without answering all of them.
type Pattern interface {
	Kind() PatternKind

	// slotAt reports whether the day at offset (0 = start date) gets a delivery.
	slotAt(offset int, weekday time.Weekday) (Slot, bool)
	// minPeriod is the period the request must exceed for the pattern to be offered.
	minPeriod() int
	validate(q Quantities) error
	describe(q Quantities) string
}

type Daily struct{}

type AlternateDays struct{}

type Day1Day2 struct{}

// SelectDays delivers on the listed weekdays (Sunday = 0).
type SelectDays struct {
	Weekdays []time.Weekday
}

func (Daily) Kind() PatternKind         { return KindDaily }
func (AlternateDays) Kind() PatternKind { return KindAlternateDays }
func (Day1Day2) Kind() PatternKind      { return KindDay1Day2 }
func (SelectDays) Kind() PatternKind    { return KindSelectDays }

func (Daily) slotAt(int, time.Weekday) (Slot, bool) { return SlotPrimary, true }

func (AlternateDays) slotAt(offset int, _ time.Weekday) (Slot, bool) {
	return SlotPrimary, offset%2 == 0
}

func (Day1Day2) slotAt(offset int, _ time.Weekday) (Slot, bool) {
	if offset%2 == 0 {
		return SlotPrimary, true
	}
	return SlotSecondary, true
}

func (p SelectDays) slotAt(_ int, weekday time.Weekday) (Slot, bool) {
	return SlotPrimary, slices.Contains(p.Weekdays, weekday)
}

func (Daily) minPeriod() int         { return 0 }
func (AlternateDays) minPeriod() int { return AlternateDaysMinPeriod }
func (Day1Day2) minPeriod() int      { return Day1Day2MinPeriod }
func (SelectDays) minPeriod() int    { return SelectDaysMinPeriod }

func (Daily) validate(q Quantities) error         { return validatePrimary(q) }
func (AlternateDays) validate(q Quantities) error { return validatePrimary(q) }

func (Day1Day2) validate(q Quantities) error {
	if err := validatePrimary(q); err != nil {
		return err
	}
	if q.Secondary < 1 {
		return xerrors.New("day 2 quantity must be at least 1").
			WithHint("DAY1_DAY2 needs both a day 1 and a day 2 quantity").
			Mark(xerrors.ErrValidation)
	}
	if q.Secondary > MaxQuantity {
		return xerrors.Newf("day 2 quantity %d exceeds %d", q.Secondary, MaxQuantity).
			WithHintf("day 2 quantity must be at most %d", MaxQuantity).
			Mark(xerrors.ErrValidation)
	}
	return nil
}

func (p SelectDays) validate(q Quantities) error {
	if err := validatePrimary(q); err != nil {
		return err
	}
	for _, d := range p.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return xerrors.Newf("weekday %d out of range", int(d)).
				WithHint("weekdays are numbered 0 (Sunday) to 6 (Saturday)").
				Mark(xerrors.ErrValidation)
		}
	}
	if len(p.Weekdays) < MinSelectedWeekdays {
		return xerrors.Newf("%d weekdays selected", len(p.Weekdays)).
			WithHintf("select at least %d delivery days", MinSelectedWeekdays).
			Mark(xerrors.ErrValidation)
	}
	return nil
}

func validatePrimary(q Quantities) error {
	if q.Primary < 1 {
		return xerrors.New("quantity must be at least 1").
			WithHint("quantity must be at least 1").
			Mark(xerrors.ErrValidation)
	}
	if q.Primary > MaxQuantity {
		return xerrors.Newf("quantity %d exceeds %d", q.Primary, MaxQuantity).
			WithHintf("quantity must be at most %d", MaxQuantity).
			Mark(xerrors.ErrValidation)
	}
	return nil
}

func (Daily) describe(q Quantities) string {
	return fmt.Sprintf("%s every day", units(q.Primary))
}

func (AlternateDays) describe(q Quantities) string {
	return fmt.Sprintf("%s every alternate day", units(q.Primary))
}

func (Day1Day2) describe(q Quantities) string {
	return fmt.Sprintf("%s on day 1 and %s on day 2, alternating", units(q.Primary), units(q.Secondary))
}

func (p SelectDays) describe(q Quantities) string {
	if len(p.Weekdays) == 0 {
		return "no delivery days selected"
	}
	names := lo.Map(p.Weekdays, func(d time.Weekday, _ int) string { return d.String()[:3] })
	return fmt.Sprintf("%s every %s", units(q.Primary), strings.Join(names, ", "))
}

func units(n int) string {
	if n == 1 {
		return "1 unit"
	}
	return fmt.Sprintf("%d units", n)
}

// ParsePattern builds a pattern from its wire form. Weekdays are only read
// for SELECT_DAYS; they are deduplicated and sorted Monday first.
func ParsePattern(kind PatternKind, weekdays []int) (Pattern, error) {
	switch PatternKind(strings.ToUpper(string(kind))) {
	case "":
		return nil, xerrors.New("recurrence pattern is required").
			WithHint("pattern must be one of DAILY, ALTERNATE_DAYS, DAY1_DAY2, SELECT_DAYS").
			Mark(xerrors.ErrValidation)
	case KindDaily:
		return Daily{}, nil
	case KindAlternateDays:
		return AlternateDays{}, nil
	case KindDay1Day2:
		return Day1Day2{}, nil
	case KindSelectDays:
		days := lo.Map(lo.Uniq(weekdays), func(d int, _ int) time.Weekday { return time.Weekday(d) })
		slices.SortFunc(days, func(a, b time.Weekday) int { return mondayFirst(a) - mondayFirst(b) })
		return SelectDays{Weekdays: days}, nil
	default:
		return nil, xerrors.Newf("unknown recurrence pattern %q", kind).
			WithHint("pattern must be one of DAILY, ALTERNATE_DAYS, DAY1_DAY2, SELECT_DAYS").
			Mark(xerrors.ErrValidation)
	}
}

// WeekdayNumbers returns the wire form of a pattern's weekdays, nil unless SELECT_DAYS.
func WeekdayNumbers(p Pattern) []int {
	sd, ok := p.(SelectDays)
	if !ok {
		return nil
	}
	return lo.Map(sd.Weekdays, func(d time.Weekday, _ int) int { return int(d) })
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Describe renders the human-readable delivery description for a selection.
func Describe(p Pattern, q Quantities) string {
	return p.describe(q)
}
