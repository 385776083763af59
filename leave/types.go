// Package leave implements the leave-balance ledger and the leave-request
// lifecycle: requested days are computed from a date range with half-day
// breakdowns, shrunk by calendar exclusions per leave-type policy, checked
// against the (employee, leave type) balance, and moved between the
// available and carried-forward pools on approval and reversal.
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/calendar"
)

// =============================================================================
// BREAKDOWN - Half-day markers on range endpoints
// =============================================================================

type Breakdown string

const (
	FullDay    Breakdown = "full_day"
	FirstHalf  Breakdown = "first_half"
	SecondHalf Breakdown = "second_half"
)

func (b Breakdown) Valid() bool {
	switch b {
	case FullDay, FirstHalf, SecondHalf:
		return true
	}
	return false
}

// IsHalf reports whether the endpoint contributes half a day.
func (b Breakdown) IsHalf() bool { return b == FirstHalf || b == SecondHalf }

// =============================================================================
// STATUS - Request lifecycle states
// =============================================================================

type Status string

const (
	StatusRequested            Status = "requested"
	StatusApproved             Status = "approved"
	StatusCancelled            Status = "cancelled"
	StatusRejected             Status = "rejected"
	StatusCancelledAndRejected Status = "cancelled_and_rejected"
)

// Terminal reports whether no further transition is legal from this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusCancelledAndRejected:
		return true
	}
	return false
}

// =============================================================================
// LEAVE TYPE
// =============================================================================

type CarryforwardPolicy string

const (
	CarryforwardNone       CarryforwardPolicy = "none"
	Carryforward           CarryforwardPolicy = "carryforward"
	CarryforwardWithExpiry CarryforwardPolicy = "carryforward_with_expiry"
)

// LeaveType defines an entitlement category and its exclusion policy.
// Administrative edits aside, it is immutable once requests reference it.
type LeaveType struct {
	ID                  string
	Name                string
	TotalDays           decimal.Decimal // annual entitlement
	ExcludeHoliday      bool
	ExcludeCompanyLeave bool
	RequireAttachment   bool
	CarryforwardPolicy  CarryforwardPolicy
	CarryforwardMax     *decimal.Decimal
}

// =============================================================================
// AVAILABLE LEAVE - The ledger row, unique per (employee, leave type)
// =============================================================================

// AvailableLeave holds the two balance pools. Both are always >= 0; the
// only mutations are request transitions (Debit/Credit) and allocation
// top-ups, which only add.
type AvailableLeave struct {
	EmployeeID       string
	LeaveTypeID      string
	AvailableDays    decimal.Decimal
	CarryforwardDays decimal.Decimal
	AssignedDate     calendar.Date
}

// TotalLeaveDays is the derived sum of both pools.
func (a *AvailableLeave) TotalLeaveDays() decimal.Decimal {
	return a.AvailableDays.Add(a.CarryforwardDays)
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveRequest records a date-range request against one leave type.
// RequestedDays is computed at creation and never recomputed; the
// Approved* fields record exactly how much each ledger pool was debited
// so a later cancel/reject reverses precisely even if calendars or the
// leave type changed since approval.
type LeaveRequest struct {
	ID             string
	EmployeeID     string
	LeaveTypeID    string
	StartDate      calendar.Date
	EndDate        calendar.Date
	StartBreakdown Breakdown
	EndBreakdown   Breakdown
	RequestedDays  decimal.Decimal
	Description    string
	HasAttachment  bool
	Status         Status
	RejectReason   string

	ApprovedAvailableDays    decimal.Decimal
	ApprovedCarryforwardDays decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the request's date range intersects [start, end].
func (r *LeaveRequest) Overlaps(start, end calendar.Date) bool {
	return r.StartDate.BeforeOrEqual(end) && r.EndDate.AfterOrEqual(start)
}
