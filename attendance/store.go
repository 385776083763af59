package attendance

import (
	"context"

	"github.com/warp/leave-engine/calendar"
)

// Store persists shifts, their per-employee assignment, attendance records
// and activity segments. Lookups returning (nil, nil) mean "no row".
type Store interface {
	// Shifts
	SaveShift(ctx context.Context, s *Shift) error
	ShiftByID(ctx context.Context, id string) (*Shift, error)
	ListShifts(ctx context.Context) ([]*Shift, error)

	// Assignment: one shift per employee.
	AssignShift(ctx context.Context, employeeID, shiftID string) error
	ShiftForEmployee(ctx context.Context, employeeID string) (*Shift, error)

	// Records
	SaveRecord(ctx context.Context, r *Record) error
	RecordFor(ctx context.Context, employeeID string, date calendar.Date) (*Record, error)
	LatestRecord(ctx context.Context, employeeID string) (*Record, error)

	// Activities
	SaveActivity(ctx context.Context, a *Activity) error
	OpenActivity(ctx context.Context, employeeID string) (*Activity, error)
	ActivitiesFor(ctx context.Context, employeeID string, date calendar.Date) ([]*Activity, error)
}
