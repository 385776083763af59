package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

func date(y int, m time.Month, d int) calendar.Date { return calendar.NewDate(y, m, d) }

func days(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestRequestedDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end calendar.Date
		sb, eb     leave.Breakdown
		want       float64
	}{
		{"single full day", date(2024, 3, 1), date(2024, 3, 1), leave.FullDay, leave.FullDay, 1},
		{"single first half", date(2024, 3, 1), date(2024, 3, 1), leave.FirstHalf, leave.FirstHalf, 0.5},
		{"single second half", date(2024, 3, 1), date(2024, 3, 1), leave.SecondHalf, leave.SecondHalf, 0.5},
		{"five full days", date(2024, 3, 1), date(2024, 3, 5), leave.FullDay, leave.FullDay, 5},
		{"half start", date(2024, 3, 1), date(2024, 3, 5), leave.SecondHalf, leave.FullDay, 4.5},
		{"half end", date(2024, 3, 1), date(2024, 3, 5), leave.FullDay, leave.FirstHalf, 4.5},
		{"both halves", date(2024, 3, 1), date(2024, 3, 5), leave.SecondHalf, leave.FirstHalf, 4},
		{"across month boundary", date(2024, 2, 28), date(2024, 3, 2), leave.FullDay, leave.FullDay, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := leave.RequestedDays(c.start, c.end, c.sb, c.eb)
			require.NoError(t, err)
			assert.True(t, days(c.want).Equal(got), "want %v got %s", c.want, got)
		})
	}
}

func TestRequestedDays_BreakdownMismatch(t *testing.T) {
	// GIVEN: a single-day request
	// WHEN: start and end carry different breakdowns
	// THEN: BreakdownMismatch
	_, err := leave.RequestedDays(date(2024, 3, 1), date(2024, 3, 1), leave.FirstHalf, leave.SecondHalf)
	assert.ErrorIs(t, err, leave.ErrBreakdownMismatch)

	_, err = leave.RequestedDays(date(2024, 3, 1), date(2024, 3, 1), leave.FullDay, leave.FirstHalf)
	assert.ErrorIs(t, err, leave.ErrBreakdownMismatch)
}

func TestRequestedDays_EndBeforeStart(t *testing.T) {
	_, err := leave.RequestedDays(date(2024, 3, 5), date(2024, 3, 1), leave.FullDay, leave.FullDay)
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestEffectiveDays_NoExclusions(t *testing.T) {
	lt := &leave.LeaveType{ID: "annual"}
	holidays := []calendar.Holiday{{StartDate: date(2024, 3, 3)}}

	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, nil)

	assert.True(t, days(5).Equal(got), "policy off: nothing subtracted")
}

func TestEffectiveDays_HolidayExcluded(t *testing.T) {
	lt := &leave.LeaveType{ID: "annual", ExcludeHoliday: true}
	holidays := []calendar.Holiday{{StartDate: date(2024, 3, 3), EndDate: date(2024, 3, 3)}}

	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, nil)

	assert.True(t, days(4).Equal(got))
}

func TestEffectiveDays_RecurringHolidayExcluded(t *testing.T) {
	lt := &leave.LeaveType{ID: "annual", ExcludeHoliday: true}
	holidays := []calendar.Holiday{{StartDate: date(2019, 3, 4), Recurring: true}}

	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, nil)

	assert.True(t, days(4).Equal(got))
}

func TestEffectiveDays_CompanyLeaveExcluded(t *testing.T) {
	lt := &leave.LeaveType{ID: "annual", ExcludeCompanyLeave: true}
	rules := []calendar.CompanyLeave{{Weekday: time.Friday}} // every Friday

	// March 1 2024 is a Friday.
	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, nil, rules)

	assert.True(t, days(4).Equal(got))
}

func TestEffectiveDays_BothExcluded_Deduplicated(t *testing.T) {
	// GIVEN: March 1 is both a holiday and a company leave Friday
	lt := &leave.LeaveType{ID: "annual", ExcludeHoliday: true, ExcludeCompanyLeave: true}
	holidays := []calendar.Holiday{{StartDate: date(2024, 3, 1)}}
	rules := []calendar.CompanyLeave{{Weekday: time.Friday}}

	// WHEN: both exclusions apply
	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, rules)

	// THEN: the shared date is subtracted once
	assert.True(t, days(4).Equal(got))
}

func TestEffectiveDays_SingleExclusion_NotDeduplicated(t *testing.T) {
	// Only holidays excluded: the overlapping company-leave Friday is
	// irrelevant and March 1 subtracts exactly once.
	lt := &leave.LeaveType{ID: "annual", ExcludeHoliday: true}
	holidays := []calendar.Holiday{{StartDate: date(2024, 3, 1)}}
	rules := []calendar.CompanyLeave{{Weekday: time.Friday}}

	got := leave.EffectiveDays(days(5), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, rules)
	assert.True(t, days(4).Equal(got))
}

func TestEffectiveDays_CompanyLeaveAcrossMonths(t *testing.T) {
	// GIVEN: a request spanning March into April with first-Monday rules
	lt := &leave.LeaveType{ID: "annual", ExcludeCompanyLeave: true}
	week := 0
	rules := []calendar.CompanyLeave{{Week: &week, Weekday: time.Monday}}

	// WHEN: the range covers both months
	got := leave.EffectiveDays(days(30), date(2024, 3, 1), date(2024, 3, 30).AddDays(3), lt, nil, rules)

	// THEN: the first Monday of each spanned month is excluded
	// (March 4 and April 1)
	assert.True(t, days(28).Equal(got))
}

func TestEffectiveDays_CanGoNegative(t *testing.T) {
	// Not clamped here; the caller treats a negative result as
	// insufficient balance.
	lt := &leave.LeaveType{ID: "annual", ExcludeHoliday: true}
	holidays := []calendar.Holiday{{StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 5)}}

	got := leave.EffectiveDays(days(1), date(2024, 3, 1), date(2024, 3, 5), lt, holidays, nil)
	assert.True(t, got.IsNegative())
}
