package attendance

import (
	"time"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/duration"
)

// =============================================================================
// ATTENDANCE RECORD - One row per (employee, shift day)
// =============================================================================

// Record accumulates all activity segments of one shift day. The window
// fields are captured at clock-in time from the resolved schedule entry so
// later schedule edits do not reinterpret past punches.
type Record struct {
	ID             string
	EmployeeID     string
	ShiftID        string
	AttendanceDate calendar.Date
	Day            time.Weekday

	ClockInTime  time.Time // first punch of the shift day
	ClockOutTime time.Time // latest closed punch

	MinimumHour  string
	StartSeconds int
	EndSeconds   int

	AtWorkSeconds   int
	OvertimeSeconds int
	EarlyOut        bool // set once, never duplicated
	Validated       bool
}

// MinimumSeconds parses the stored minimum hour; malformed values count
// as zero.
func (r *Record) MinimumSeconds() int {
	sec, err := duration.Parse(r.MinimumHour)
	if err != nil {
		return 0
	}
	return sec
}

// PendingSeconds is the shortfall against the minimum hour. Derived on
// read, not stored.
func (r *Record) PendingSeconds() int {
	pending := r.MinimumSeconds() - r.AtWorkSeconds
	if pending < 0 {
		return 0
	}
	return pending
}

// =============================================================================
// ACTIVITY - A single clock-in/clock-out segment
// =============================================================================

// Activity is one punch pair. An employee may clock in and out several
// times per shift day; the record sums the closed segments.
type Activity struct {
	ID             string
	EmployeeID     string
	AttendanceDate calendar.Date
	ClockIn        time.Time
	ClockOut       *time.Time
}

// Seconds is the closed segment length; zero while still open.
func (a *Activity) Seconds() int {
	if a.ClockOut == nil {
		return 0
	}
	d := a.ClockOut.Sub(a.ClockIn)
	if d < 0 {
		return 0
	}
	return int(d.Seconds())
}
