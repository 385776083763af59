/*
service.go - Clock-in/out accounting

On clock-in the punch is resolved to its shift day and an open activity
segment starts; the day's record is created on first punch and reused for
later ones. On clock-out the open segment closes, worked seconds are
re-summed across all closed segments of the day, overtime is derived, and
an early-out marker is set once when the punch lands before the window
end.

Punches for the same employee serialize on a keyed mutex so overlapping
segments cannot be double-counted.
*/
package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/calendar"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoShiftAssigned is returned when the employee has no shift.
	ErrNoShiftAssigned = errors.New("employee has no assigned shift")

	// ErrAlreadyClockedIn is returned when an open segment already exists.
	ErrAlreadyClockedIn = errors.New("employee is already clocked in")

	// ErrNotClockedIn is returned on clock-out with no open segment.
	ErrNotClockedIn = errors.New("employee is not clocked in")

	// ErrNoAttendance is returned when no record exists for the query.
	ErrNoAttendance = errors.New("no attendance record")

	// ErrShiftNotFound is returned when a shift id is unknown.
	ErrShiftNotFound = errors.New("shift not found")
)

// IsClientError reports whether the error is caller-correctable.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoShiftAssigned) ||
		errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrNotClockedIn)
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{store: store, locks: make(map[string]*sync.Mutex)}
}

func (s *Service) lockFor(employeeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[employeeID] = l
	}
	return l
}

// ClockIn resolves the punch to its shift day, creates or reuses that
// day's record, and opens an activity segment.
func (s *Service) ClockIn(ctx context.Context, employeeID string, at time.Time) (*Record, error) {
	lock := s.lockFor(employeeID)
	lock.Lock()
	defer lock.Unlock()

	shift, err := s.store.ShiftForEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoShiftAssigned
	}

	open, err := s.store.OpenActivity(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyClockedIn
	}

	res := Resolve(shift, at)

	record, err := s.store.RecordFor(ctx, employeeID, res.AttendanceDate)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &Record{
			ID:             uuid.NewString(),
			EmployeeID:     employeeID,
			ShiftID:        shift.ID,
			AttendanceDate: res.AttendanceDate,
			Day:            res.Day,
			ClockInTime:    at,
			MinimumHour:    res.Entry.MinimumHour,
			StartSeconds:   res.Entry.StartSeconds,
			EndSeconds:     res.Entry.EndSeconds,
		}
		if err := s.store.SaveRecord(ctx, record); err != nil {
			return nil, err
		}
	}

	activity := &Activity{
		ID:             uuid.NewString(),
		EmployeeID:     employeeID,
		AttendanceDate: record.AttendanceDate,
		ClockIn:        at,
	}
	if err := s.store.SaveActivity(ctx, activity); err != nil {
		return nil, err
	}
	return record, nil
}

// ClockOut closes the open segment and reconciles the day's record:
// worked seconds are the sum of all closed segments, overtime is the
// excess over the minimum hour, and an early-out marker is set once if
// the punch lands before the window end.
func (s *Service) ClockOut(ctx context.Context, employeeID string, at time.Time) (*Record, error) {
	lock := s.lockFor(employeeID)
	lock.Lock()
	defer lock.Unlock()

	open, err := s.store.OpenActivity(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNotClockedIn
	}

	out := at
	open.ClockOut = &out
	if err := s.store.SaveActivity(ctx, open); err != nil {
		return nil, err
	}

	record, err := s.store.RecordFor(ctx, employeeID, open.AttendanceDate)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoAttendance
	}

	activities, err := s.store.ActivitiesFor(ctx, employeeID, open.AttendanceDate)
	if err != nil {
		return nil, err
	}
	atWork := 0
	for _, a := range activities {
		atWork += a.Seconds()
	}

	record.ClockOutTime = at
	record.AtWorkSeconds = atWork
	record.OvertimeSeconds = 0
	if minSec := record.MinimumSeconds(); atWork > minSec {
		record.OvertimeSeconds = atWork - minSec
	}
	if !record.EarlyOut && earlyOut(record, at) {
		record.EarlyOut = true
	}

	if err := s.store.SaveRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// earlyOut reports whether the punch lands before the shift window end.
// For a night shift the end falls on the day after the attendance date, so
// only a before-noon punch can be early.
func earlyOut(record *Record, at time.Time) bool {
	if record.StartSeconds == 0 && record.EndSeconds == 0 {
		return false
	}
	sec := secondsOfDay(at)
	if record.StartSeconds > record.EndSeconds {
		return sec < noonSeconds && sec < record.EndSeconds
	}
	return sec < record.EndSeconds
}

// =============================================================================
// METRICS
// =============================================================================

// Metrics is the read-side view of one shift day.
type Metrics struct {
	Record          *Record
	AtWorkSeconds   int
	OvertimeSeconds int
	PendingSeconds  int
	EarlyOut        bool
}

// DailyMetrics returns worked/overtime/pending seconds for the shift day.
func (s *Service) DailyMetrics(ctx context.Context, employeeID string, date calendar.Date) (*Metrics, error) {
	record, err := s.store.RecordFor(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNoAttendance
	}
	return &Metrics{
		Record:          record,
		AtWorkSeconds:   record.AtWorkSeconds,
		OvertimeSeconds: record.OvertimeSeconds,
		PendingSeconds:  record.PendingSeconds(),
		EarlyOut:        record.EarlyOut,
	}, nil
}
