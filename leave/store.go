/*
store.go - Persistence interface for the leave core

Implementations: store/memory (tests/dev) and store/sqlite (production).

ATOMICITY CONTRACT:
  SaveRequestAndLedger writes a request and its ledger row in one
  transaction: either both land or neither does. Approve and
  cancel-or-reject rely on this so a status change can never be observed
  without its balance mutation (or vice versa).
*/
package leave

import (
	"context"

	"github.com/warp/leave-engine/calendar"
)

type Store interface {
	// Leave types
	SaveLeaveType(ctx context.Context, lt *LeaveType) error
	LeaveTypeByID(ctx context.Context, id string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]*LeaveType, error)

	// Ledger rows. AvailableLeaveFor returns (nil, nil) when the employee
	// has no row for the leave type.
	SaveAvailableLeave(ctx context.Context, al *AvailableLeave) error
	AvailableLeaveFor(ctx context.Context, employeeID, leaveTypeID string) (*AvailableLeave, error)
	ListAvailableLeaves(ctx context.Context, employeeID string) ([]*AvailableLeave, error)

	// Requests
	SaveRequest(ctx context.Context, r *LeaveRequest) error
	RequestByID(ctx context.Context, id string) (*LeaveRequest, error)
	ListRequests(ctx context.Context, employeeID string) ([]*LeaveRequest, error)

	// OverlappingRequests returns non-terminal requests for the employee
	// whose date range intersects [start, end].
	OverlappingRequests(ctx context.Context, employeeID string, start, end calendar.Date) ([]*LeaveRequest, error)

	// SaveRequestAndLedger persists both records atomically.
	SaveRequestAndLedger(ctx context.Context, r *LeaveRequest, al *AvailableLeave) error
}
