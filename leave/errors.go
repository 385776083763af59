/*
errors.go - Error taxonomy for the leave core

All failures are detected before any mutation and returned synchronously;
there are no partial ledger writes and no internal retries. Callers match
with errors.Is against the sentinels; structured types carry context and
unwrap to them.
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBreakdownMismatch is returned when a single-day request carries
	// conflicting half-day markers on its endpoints.
	ErrBreakdownMismatch = errors.New("breakdown mismatch between start and end date")

	// ErrInvalidDateRange is returned when the end date precedes the start date.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrOverlappingRequest is returned when a non-terminal request already
	// covers part of the date range.
	ErrOverlappingRequest = errors.New("overlapping leave request exists")

	// ErrAttachmentRequired is returned when the leave type demands an
	// attachment and the request has none.
	ErrAttachmentRequired = errors.New("attachment required for this leave type")

	// ErrNoLeaveTypeAssigned is returned when no ledger row exists for the
	// (employee, leave type) pair.
	ErrNoLeaveTypeAssigned = errors.New("employee is not assigned this leave type")

	// ErrInsufficientBalance is returned when effective days exceed the sum
	// of the available and carryforward pools.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrInvalidTransition is returned for any illegal lifecycle move,
	// including operating on a terminal request.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRequestNotFound is returned when a request id is unknown.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrLeaveTypeNotFound is returned when a leave type id is unknown.
	ErrLeaveTypeNotFound = errors.New("leave type not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError details a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID  string
	LeaveTypeID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance: %s has %s days of %s, requested %s",
		e.EmployeeID, e.Available, e.LeaveTypeID, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidTransitionError details an illegal lifecycle move.
type InvalidTransitionError struct {
	RequestID string
	From      Status
	To        Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for request %s: %s -> %s", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBreakdownMismatch) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrAttachmentRequired) ||
		errors.Is(err, ErrNoLeaveTypeAssigned) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrLeaveTypeNotFound)
}
