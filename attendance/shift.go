/*
Package attendance resolves clock punches onto shift days and computes
worked, overtime and pending seconds against the shift's minimum hour.

SHIFT DAY:
  The logical day an attendance record is attributed to. For day shifts it
  is the calendar day of the punch. A night shift (start after end, window
  crossing midnight) is treated as one continuous 24h day running noon to
  noon: a punch before 12:00 belongs to the previous calendar day's shift,
  so a worker clocking in at 23:30 and out at 07:00 lands on a single
  record instead of being split at midnight.
*/
package attendance

import (
	"time"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/duration"
)

const noonSeconds = 12 * 3600

// =============================================================================
// SHIFT SCHEDULE
// =============================================================================

// ScheduleEntry is the per-weekday window of a shift. A zero entry means
// the weekday has no scheduled window; punches still record but carry no
// minimum hour.
type ScheduleEntry struct {
	MinimumHour  string // "HH:MM"
	StartSeconds int    // seconds since midnight
	EndSeconds   int
}

// IsNightShift reports whether the window crosses midnight.
func (e ScheduleEntry) IsNightShift() bool { return e.StartSeconds > e.EndSeconds }

// MinimumSeconds parses the minimum hour; a missing or malformed value
// counts as zero.
func (e ScheduleEntry) MinimumSeconds() int {
	sec, err := duration.Parse(e.MinimumHour)
	if err != nil {
		return 0
	}
	return sec
}

// Shift is a weekly schedule, one entry per weekday.
type Shift struct {
	ID   string
	Name string
	Days map[time.Weekday]ScheduleEntry
}

func (s *Shift) Entry(day time.Weekday) ScheduleEntry {
	if s == nil || s.Days == nil {
		return ScheduleEntry{}
	}
	return s.Days[day]
}

// =============================================================================
// SHIFT DAY RESOLUTION
// =============================================================================

// Resolution is the shift day and effective window a punch maps to.
type Resolution struct {
	AttendanceDate calendar.Date
	Day            time.Weekday
	Entry          ScheduleEntry
}

// Resolve assigns a timestamp to a shift day. A night-shift punch before
// noon re-resolves against yesterday's schedule entry and is attributed
// to yesterday's date.
func Resolve(shift *Shift, now time.Time) Resolution {
	today := calendar.DateOf(now)
	entry := shift.Entry(today.Weekday())

	if entry.IsNightShift() && secondsOfDay(now) < noonSeconds {
		yesterday := today.AddDays(-1)
		return Resolution{
			AttendanceDate: yesterday,
			Day:            yesterday.Weekday(),
			Entry:          shift.Entry(yesterday.Weekday()),
		}
	}
	return Resolution{AttendanceDate: today, Day: today.Weekday(), Entry: entry}
}

func secondsOfDay(t time.Time) int {
	u := t.UTC()
	return u.Hour()*3600 + u.Minute()*60 + u.Second()
}
