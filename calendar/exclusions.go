package calendar

import "time"

// =============================================================================
// HOLIDAY - Literal or yearly-recurring inclusive span
// =============================================================================

// Holiday is an inclusive start-end span. When Recurring is set, the stored
// year is irrelevant: the month/day span repeats every year.
type Holiday struct {
	ID        string
	Name      string
	StartDate Date
	EndDate   Date
	Recurring bool
}

// HolidayDates expands holidays into the concrete dates falling inside
// [from, to]. Recurring holidays are projected onto every year overlapping
// the window; spans that wrap the year boundary (Dec 30 - Jan 2) land the
// end in the following year.
func HolidayDates(holidays []Holiday, from, to Date) map[Date]struct{} {
	dates := make(map[Date]struct{})
	if to.Before(from) {
		return dates
	}

	addRange := func(start, end Date) {
		for _, d := range DatesBetween(start, end) {
			if d.AfterOrEqual(from) && d.BeforeOrEqual(to) {
				dates[d] = struct{}{}
			}
		}
	}

	for _, h := range holidays {
		end := h.EndDate
		if end.IsZero() {
			end = h.StartDate
		}
		if !h.Recurring {
			addRange(h.StartDate, end)
			continue
		}
		// Project month/day onto each candidate year. The year before the
		// window start matters for spans wrapping into January.
		for year := from.Year() - 1; year <= to.Year(); year++ {
			start := NewDate(year, h.StartDate.Month(), h.StartDate.Day())
			stop := NewDate(year, end.Month(), end.Day())
			if stop.Before(start) {
				stop = NewDate(year+1, end.Month(), end.Day())
			}
			addRange(start, stop)
		}
	}
	return dates
}

// =============================================================================
// COMPANY LEAVE - Weekday-of-month rule
// =============================================================================

// CompanyLeave is a recurring weekday rule. Week selects the ordinal
// occurrence within the month (0 = first .. 4 = fifth); nil means every
// occurrence of the weekday.
type CompanyLeave struct {
	ID      string
	Week    *int
	Weekday time.Weekday
}

// CompanyLeaveDates expands rules into concrete dates within the reference
// date's month.
func CompanyLeaveDates(rules []CompanyLeave, reference Date) map[Date]struct{} {
	dates := make(map[Date]struct{})
	first := NewDate(reference.Year(), reference.Month(), 1)
	nextMonth := first.AddMonths(1)

	for _, rule := range rules {
		ordinal := 0
		for d := first; d.Before(nextMonth); d = d.AddDays(1) {
			if d.Weekday() != rule.Weekday {
				continue
			}
			if rule.Week == nil || *rule.Week == ordinal {
				dates[d] = struct{}{}
			}
			ordinal++
		}
	}
	return dates
}

// CompanyLeaveDatesInRange expands rules for every month spanned by
// [from, to] and keeps only dates inside the window.
func CompanyLeaveDatesInRange(rules []CompanyLeave, from, to Date) map[Date]struct{} {
	dates := make(map[Date]struct{})
	for _, month := range MonthsSpanned(from, to) {
		for d := range CompanyLeaveDates(rules, month) {
			if d.AfterOrEqual(from) && d.BeforeOrEqual(to) {
				dates[d] = struct{}{}
			}
		}
	}
	return dates
}
