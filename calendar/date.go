/*
Package calendar provides day-granularity dates and the expansion of holiday
and company-leave definitions into concrete excluded dates.

PURPOSE:
  Leave requests are validated against calendars: a leave type may exclude
  holidays or recurring company leave days from the requested day count.
  This package turns those definitions into sets of concrete dates so the
  leave package can do plain set arithmetic.

KEY CONCEPTS:
  - Date: a calendar day in UTC. All comparisons and arithmetic are
    day-granular; there is no time-of-day component.
  - Holiday: a literal or yearly-recurring inclusive date span.
  - CompanyLeave: a weekday-of-month rule ("second Friday", "every Monday")
    expanded relative to a reference month.
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day, UTC, no time-of-day
// =============================================================================

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// MarshalJSON/UnmarshalJSON encode Date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed whole-day distance from from to to.
// Same day is 0.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// DatesBetween returns every date in [from, to] inclusive.
// Returns nil when to is before from.
func DatesBetween(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	dates := make([]Date, 0, DaysBetween(from, to)+1)
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// MonthsSpanned returns the first day of every month touched by [from, to].
func MonthsSpanned(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	var months []Date
	for m := NewDate(from.Year(), from.Month(), 1); m.BeforeOrEqual(to); m = m.AddMonths(1) {
		months = append(months, m)
	}
	return months
}
