package schedule

import "time"

// DateOf returns the calendar date of t (in t's own location) as midnight UTC.
// All delivery dates are stored and compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in the business timezone.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// EarliestStart is the first start date a checkout may pick.
func EarliestStart(today time.Time, leadDays int) time.Time {
	return DateOf(today).AddDate(0, 0, leadDays)
}
