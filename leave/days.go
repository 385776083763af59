/*
days.go - Requested and effective day calculation

REQUESTED DAYS:
  The inclusive day count of the range, with each half-day endpoint
  contributing 0.5 instead of 1. A single-day request must carry the same
  breakdown on both endpoints.

EFFECTIVE DAYS:
  Requested days shrunk by the leave type's exclusion policy. When both
  holiday and company-leave exclusion are on, excluded dates are collected
  into one deduplicated set before counting. When only one is on, each
  exclusion is counted independently. An excluded date always removes a
  whole day, even if it is a half-day endpoint; a negative result is not
  clamped here - the caller rejects it as insufficient balance.
*/
package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/calendar"
)

var half = decimal.NewFromFloat(0.5)

// RequestedDays turns a date range plus breakdown markers into a fractional
// day count.
func RequestedDays(start, end calendar.Date, startBreakdown, endBreakdown Breakdown) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, ErrInvalidDateRange
	}

	if start.Equal(end) {
		if startBreakdown != endBreakdown {
			return decimal.Zero, ErrBreakdownMismatch
		}
		if startBreakdown.IsHalf() {
			return half, nil
		}
		return decimal.NewFromInt(1), nil
	}

	days := decimal.NewFromInt(int64(calendar.DaysBetween(start, end) + 1))
	if startBreakdown.IsHalf() {
		days = days.Sub(half)
	}
	if endBreakdown.IsHalf() {
		days = days.Sub(half)
	}
	return days, nil
}

// EffectiveDays applies the leave type's exclusion policy to shrink the
// requested day count by holiday and company-leave dates inside the range.
// Company-leave rules are expanded for every month the range spans.
func EffectiveDays(
	requestedDays decimal.Decimal,
	start, end calendar.Date,
	leaveType *LeaveType,
	holidays []calendar.Holiday,
	companyLeaves []calendar.CompanyLeave,
) decimal.Decimal {
	if !leaveType.ExcludeHoliday && !leaveType.ExcludeCompanyLeave {
		return requestedDays
	}

	requested := calendar.DatesBetween(start, end)
	holidayDates := calendar.HolidayDates(holidays, start, end)
	companyDates := calendar.CompanyLeaveDatesInRange(companyLeaves, start, end)

	if leaveType.ExcludeHoliday && leaveType.ExcludeCompanyLeave {
		excluded := 0
		for _, d := range requested {
			if _, ok := holidayDates[d]; ok {
				excluded++
				continue
			}
			if _, ok := companyDates[d]; ok {
				excluded++
			}
		}
		return requestedDays.Sub(decimal.NewFromInt(int64(excluded)))
	}

	// Applied separately the two counts are not deduplicated.
	if leaveType.ExcludeHoliday {
		count := 0
		for _, d := range requested {
			if _, ok := holidayDates[d]; ok {
				count++
			}
		}
		requestedDays = requestedDays.Sub(decimal.NewFromInt(int64(count)))
	}
	if leaveType.ExcludeCompanyLeave {
		count := 0
		for _, d := range requested {
			if _, ok := companyDates[d]; ok {
				count++
			}
		}
		requestedDays = requestedDays.Sub(decimal.NewFromInt(int64(count)))
	}
	return requestedDays
}
