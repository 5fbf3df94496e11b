package schedule

import (
	"testing"
	"time"

	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEnumerate_Daily(t *testing.T) {
	start := date(2026, time.October, 20)
	for _, period := range []int{1, 3, 7, 15, 30, 31} {
		got, err := Enumerate(start, period, Daily{})
		require.NoError(t, err)
		assert.Len(t, got, period, "period %d", period)
		assert.Equal(t, start, got[0].Date)
		assert.Equal(t, start.AddDate(0, 0, period-1), got[len(got)-1].Date)
		for _, o := range got {
			assert.Equal(t, SlotPrimary, o.Slot)
		}
	}
}

func TestEnumerate_AlternateDays(t *testing.T) {
	start := date(2026, time.October, 20)
	for period := 1; period <= 31; period++ {
		got, err := Enumerate(start, period, AlternateDays{})
		require.NoError(t, err)
		assert.Len(t, got, (period+1)/2, "period %d", period)
		for i, o := range got {
			assert.Equal(t, start.AddDate(0, 0, 2*i), o.Date)
		}
	}
}

func TestEnumerate_Day1Day2(t *testing.T) {
	start := date(2026, time.October, 20)
	for period := 1; period <= 31; period++ {
		got, err := Enumerate(start, period, Day1Day2{})
		require.NoError(t, err)
		require.Len(t, got, period)

		primary, secondary := 0, 0
		for i, o := range got {
			if i%2 == 0 {
				assert.Equal(t, SlotPrimary, o.Slot)
				primary++
			} else {
				assert.Equal(t, SlotSecondary, o.Slot)
				secondary++
			}
		}
		assert.Equal(t, (period+1)/2, primary)
		assert.Equal(t, period/2, secondary)
	}
}

func TestPlan_Day1Day2TotalQuantity(t *testing.T) {
	plan, err := Plan(date(2026, time.November, 1), 30, Day1Day2{}, Quantities{Primary: 2, Secondary: 1})
	require.NoError(t, err)

	total := 0
	for _, q := range PlanQuantities(plan) {
		total += q
	}
	assert.Equal(t, 45, total)
	assert.Equal(t, 2, plan[0].Quantity)
	assert.Equal(t, 1, plan[1].Quantity)
}

func TestEnumerate_SelectDays(t *testing.T) {
	// 2026-10-19 is a Monday.
	start := date(2026, time.October, 19)

	tests := []struct {
		name     string
		weekdays []time.Weekday
		period   int
		want     []time.Time
	}{
		{
			name:     "mon wed fri over one week",
			weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			period:   7,
			want:     []time.Time{date(2026, 10, 19), date(2026, 10, 21), date(2026, 10, 23)},
		},
		{
			name:     "sunday is weekday zero",
			weekdays: []time.Weekday{time.Sunday},
			period:   15,
			want:     []time.Time{date(2026, 10, 25), date(2026, 11, 1)},
		},
		{
			name:     "no matching day inside a short window",
			weekdays: []time.Weekday{time.Saturday, time.Sunday},
			period:   3,
			want:     []time.Time{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Enumerate(start, tt.period, SelectDays{Weekdays: tt.weekdays})
			require.NoError(t, err)
			dates := make([]time.Time, len(got))
			for i, o := range got {
				dates[i] = o.Date
			}
			assert.Equal(t, tt.want, dates)
		})
	}
}

func TestEnumerate_SelectDaysEmptyWeekdays(t *testing.T) {
	for _, period := range []int{3, 15, 30} {
		got, err := Enumerate(date(2026, time.October, 20), period, SelectDays{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestEnumerate_Invalid(t *testing.T) {
	_, err := Enumerate(time.Time{}, 15, Daily{})
	assert.True(t, xerrors.Is(err, xerrors.ErrValidation))

	_, err = Enumerate(date(2026, time.October, 20), 0, Daily{})
	assert.True(t, xerrors.Is(err, xerrors.ErrValidation))

	_, err = Enumerate(date(2026, time.October, 20), 3, nil)
	assert.True(t, xerrors.Is(err, xerrors.ErrValidation))
}

func TestEnumerate_CrossesMonthAndLeapDay(t *testing.T) {
	got, err := Enumerate(date(2028, time.February, 27), 3, Daily{})
	require.NoError(t, err)
	assert.Equal(t, date(2028, time.February, 29), got[2].Date)

	got, err = Enumerate(date(2026, time.December, 30), 3, Daily{})
	require.NoError(t, err)
	assert.Equal(t, date(2027, time.January, 1), got[2].Date)
}

func TestEnumerate_NormalizesStartToCalendarDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	// 00:30 IST on the 20th is still the 19th in UTC; the IST calendar date wins.
	start := time.Date(2026, time.October, 20, 0, 30, 0, 0, ist)

	got, err := Enumerate(start, 1, Daily{})
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.October, 20), got[0].Date)
}

func TestEndDate(t *testing.T) {
	assert.Equal(t, date(2026, time.November, 18), EndDate(date(2026, time.October, 20), 30))
	assert.Equal(t, date(2026, time.October, 22), EndDate(date(2026, time.October, 20), 3))
}
