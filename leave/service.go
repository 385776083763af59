/*
service.go - Leave request lifecycle

STATE MACHINE:
  requested -> approved                 (ledger debited, split recorded)
  requested -> cancelled | rejected     (no ledger effect)
  approved  -> cancelled | rejected     (ledger credited from recorded split)
  terminal states accept no transition.

CONCURRENCY:
  Approve and cancel-or-reject against the same (employee, leave type)
  pair serialize on a keyed mutex so two concurrent approvals cannot both
  debit from the same stale balance. The status re-check happens inside
  the critical section, so the loser of the race sees the new status and
  fails with ErrInvalidTransition.
*/
package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/notify"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store    Store
	calStore calendar.Store
	sink     notify.Sink

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, calStore calendar.Store, sink notify.Sink) *Service {
	return &Service{
		store:    store,
		calStore: calStore,
		sink:     sink,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing mutations for one ledger row.
func (s *Service) lockFor(employeeID, leaveTypeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := employeeID + "|" + leaveTypeID
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// =============================================================================
// SUBMIT
// =============================================================================

type SubmitInput struct {
	EmployeeID     string
	LeaveTypeID    string
	StartDate      calendar.Date
	EndDate        calendar.Date
	StartBreakdown Breakdown
	EndBreakdown   Breakdown
	Description    string
	HasAttachment  bool
}

// Submit validates a new request and persists it in status requested.
// No ledger mutation happens here; the balance is only checked.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*LeaveRequest, error) {
	if in.StartBreakdown == "" {
		in.StartBreakdown = FullDay
	}
	if in.EndBreakdown == "" {
		in.EndBreakdown = FullDay
	}
	if !in.StartBreakdown.Valid() || !in.EndBreakdown.Valid() {
		return nil, fmt.Errorf("unknown breakdown: %w", ErrBreakdownMismatch)
	}
	if in.EndDate.IsZero() {
		in.EndDate = in.StartDate
	}

	leaveType, err := s.store.LeaveTypeByID(ctx, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	requestedDays, err := RequestedDays(in.StartDate, in.EndDate, in.StartBreakdown, in.EndBreakdown)
	if err != nil {
		return nil, err
	}

	if leaveType.RequireAttachment && !in.HasAttachment {
		return nil, ErrAttachmentRequired
	}

	overlapping, err := s.store.OverlappingRequests(ctx, in.EmployeeID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: %s overlaps %s..%s",
			ErrOverlappingRequest, overlapping[0].ID, in.StartDate, in.EndDate)
	}

	ledger, err := s.store.AvailableLeaveFor(ctx, in.EmployeeID, in.LeaveTypeID)
	if err != nil {
		return nil, err
	}

	effectiveDays, err := s.effectiveDays(ctx, requestedDays, in.StartDate, in.EndDate, leaveType)
	if err != nil {
		return nil, err
	}
	if err := CheckFeasible(ledger, effectiveDays); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &LeaveRequest{
		ID:             uuid.NewString(),
		EmployeeID:     in.EmployeeID,
		LeaveTypeID:    in.LeaveTypeID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		StartBreakdown: in.StartBreakdown,
		EndBreakdown:   in.EndBreakdown,
		RequestedDays:  requestedDays,
		Description:    in.Description,
		HasAttachment:  in.HasAttachment,
		Status:         StatusRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	notify.Dispatch(ctx, s.sink, notify.Event{
		Type:       notify.EventRequestSubmitted,
		EmployeeID: request.EmployeeID,
		RequestID:  request.ID,
		Message:    fmt.Sprintf("leave requested for %s..%s (%s days)", request.StartDate, request.EndDate, requestedDays),
	})
	return request, nil
}

func (s *Service) effectiveDays(ctx context.Context, requestedDays decimal.Decimal, start, end calendar.Date, leaveType *LeaveType) (decimal.Decimal, error) {
	if !leaveType.ExcludeHoliday && !leaveType.ExcludeCompanyLeave {
		return requestedDays, nil
	}
	holidays, err := s.calStore.ListHolidays(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	companyLeaves, err := s.calStore.ListCompanyLeaves(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return EffectiveDays(requestedDays, start, end, leaveType, holidays, companyLeaves), nil
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve debits the ledger with the request's recorded day count and
// stores the pool split on the request. Legal only from requested.
func (s *Service) Approve(ctx context.Context, requestID string) (*LeaveRequest, error) {
	request, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(request.EmployeeID, request.LeaveTypeID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read inside the critical section: a concurrent transition may
	// have already moved the request.
	request, err = s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != StatusRequested {
		return nil, &InvalidTransitionError{RequestID: request.ID, From: request.Status, To: StatusApproved}
	}

	ledger, err := s.store.AvailableLeaveFor(ctx, request.EmployeeID, request.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, ErrNoLeaveTypeAssigned
	}

	drawnAvailable, drawnCarryforward, err := Debit(ledger, request.RequestedDays)
	if err != nil {
		return nil, err
	}

	request.ApprovedAvailableDays = drawnAvailable
	request.ApprovedCarryforwardDays = drawnCarryforward
	request.Status = StatusApproved
	request.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveRequestAndLedger(ctx, request, ledger); err != nil {
		return nil, err
	}

	notify.Dispatch(ctx, s.sink, notify.Event{
		Type:       notify.EventRequestApproved,
		EmployeeID: request.EmployeeID,
		RequestID:  request.ID,
		Message:    fmt.Sprintf("leave approved: %s from available, %s from carryforward", drawnAvailable, drawnCarryforward),
	})
	return request, nil
}

// =============================================================================
// CANCEL / REJECT
// =============================================================================

// CancelOrReject moves a request to a terminal status. Leaving approved
// credits the ledger with the recorded split and zeroes it on the request;
// leaving requested touches no balance.
func (s *Service) CancelOrReject(ctx context.Context, requestID string, target Status, reason string) (*LeaveRequest, error) {
	if !target.Terminal() {
		return nil, &InvalidTransitionError{RequestID: requestID, To: target}
	}

	request, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(request.EmployeeID, request.LeaveTypeID)
	lock.Lock()
	defer lock.Unlock()

	request, err = s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, &InvalidTransitionError{RequestID: request.ID, From: request.Status, To: target}
	}

	var ledger *AvailableLeave
	if request.Status == StatusApproved {
		ledger, err = s.store.AvailableLeaveFor(ctx, request.EmployeeID, request.LeaveTypeID)
		if err != nil {
			return nil, err
		}
		if ledger == nil {
			return nil, ErrNoLeaveTypeAssigned
		}
		Credit(ledger, request.ApprovedAvailableDays, request.ApprovedCarryforwardDays)
		request.ApprovedAvailableDays = decimal.Zero
		request.ApprovedCarryforwardDays = decimal.Zero
	}

	request.Status = target
	request.RejectReason = reason
	request.UpdatedAt = time.Now().UTC()

	if ledger != nil {
		err = s.store.SaveRequestAndLedger(ctx, request, ledger)
	} else {
		err = s.store.SaveRequest(ctx, request)
	}
	if err != nil {
		return nil, err
	}

	eventType := notify.EventRequestCancelled
	if target == StatusRejected {
		eventType = notify.EventRequestRejected
	}
	notify.Dispatch(ctx, s.sink, notify.Event{
		Type:       eventType,
		EmployeeID: request.EmployeeID,
		RequestID:  request.ID,
		Message:    reason,
	})
	return request, nil
}

// =============================================================================
// BALANCE AND ALLOCATION
// =============================================================================

// Balance returns the ledger row for the pair.
func (s *Service) Balance(ctx context.Context, employeeID, leaveTypeID string) (*AvailableLeave, error) {
	ledger, err := s.store.AvailableLeaveFor(ctx, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, ErrNoLeaveTypeAssigned
	}
	return ledger, nil
}

// Assign creates the ledger row for the pair with the leave type's full
// entitlement in the available pool. A request against a leave type can
// only be validated once its row exists. Idempotent: an existing row is
// returned untouched.
func (s *Service) Assign(ctx context.Context, employeeID, leaveTypeID string) (*AvailableLeave, error) {
	leaveType, err := s.store.LeaveTypeByID(ctx, leaveTypeID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(employeeID, leaveTypeID)
	lock.Lock()
	defer lock.Unlock()

	ledger, err := s.store.AvailableLeaveFor(ctx, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		return ledger, nil
	}
	ledger = &AvailableLeave{
		EmployeeID:    employeeID,
		LeaveTypeID:   leaveTypeID,
		AvailableDays: leaveType.TotalDays,
		AssignedDate:  calendar.Today(),
	}
	if err := s.store.SaveAvailableLeave(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Allocate creates the ledger row if missing and adds days to the
// available pool. Allocation only ever adds.
func (s *Service) Allocate(ctx context.Context, employeeID, leaveTypeID string, days decimal.Decimal) (*AvailableLeave, error) {
	if days.IsNegative() {
		return nil, fmt.Errorf("allocation of negative days %s", days)
	}
	if _, err := s.store.LeaveTypeByID(ctx, leaveTypeID); err != nil {
		return nil, err
	}

	lock := s.lockFor(employeeID, leaveTypeID)
	lock.Lock()
	defer lock.Unlock()

	ledger, err := s.store.AvailableLeaveFor(ctx, employeeID, leaveTypeID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = &AvailableLeave{
			EmployeeID:   employeeID,
			LeaveTypeID:  leaveTypeID,
			AssignedDate: calendar.Today(),
		}
	}
	ledger.AvailableDays = ledger.AvailableDays.Add(days)
	if err := s.store.SaveAvailableLeave(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Request returns a request by id.
func (s *Service) Request(ctx context.Context, requestID string) (*LeaveRequest, error) {
	return s.store.RequestByID(ctx, requestID)
}

// SaveLeaveType creates or updates a leave type definition.
func (s *Service) SaveLeaveType(ctx context.Context, lt *LeaveType) error {
	return s.store.SaveLeaveType(ctx, lt)
}

// LeaveTypes lists all leave type definitions.
func (s *Service) LeaveTypes(ctx context.Context) ([]*LeaveType, error) {
	return s.store.ListLeaveTypes(ctx)
}
