package leave_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*leave.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := leave.NewService(store, store, nil)

	annual := &leave.LeaveType{
		ID:        "annual",
		Name:      "Annual Leave",
		TotalDays: days(10),
	}
	require.NoError(t, store.SaveLeaveType(context.Background(), annual))

	_, err := svc.Assign(context.Background(), "emp-1", "annual")
	require.NoError(t, err)
	return svc, store
}

func submit(t *testing.T, svc *leave.Service, start, end calendar.Date) *leave.LeaveRequest {
	t.Helper()
	request, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		StartDate:   start,
		EndDate:     end,
	})
	require.NoError(t, err)
	return request
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_FiveFullDays(t *testing.T) {
	svc, _ := newTestService(t)

	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	assert.Equal(t, leave.StatusRequested, request.Status)
	assert.True(t, days(5).Equal(request.RequestedDays))
	assert.NotEmpty(t, request.ID)
}

func TestSubmit_DefaultsEndDateAndBreakdowns(t *testing.T) {
	svc, _ := newTestService(t)

	request, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		StartDate:   date(2024, 3, 1),
	})
	require.NoError(t, err)

	assert.True(t, request.EndDate.Equal(date(2024, 3, 1)))
	assert.Equal(t, leave.FullDay, request.StartBreakdown)
	assert.True(t, days(1).Equal(request.RequestedDays))
}

func TestSubmit_BreakdownMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:     "emp-1",
		LeaveTypeID:    "annual",
		StartDate:      date(2024, 3, 1),
		EndDate:        date(2024, 3, 1),
		StartBreakdown: leave.FirstHalf,
		EndBreakdown:   leave.SecondHalf,
	})
	assert.ErrorIs(t, err, leave.ErrBreakdownMismatch)
}

func TestSubmit_OverlappingRequestRejected(t *testing.T) {
	svc, _ := newTestService(t)
	submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		StartDate:   date(2024, 3, 5),
		EndDate:     date(2024, 3, 7),
	})
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest)
}

func TestSubmit_OverlapIgnoresTerminalRequests(t *testing.T) {
	svc, _ := newTestService(t)
	first := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	_, err := svc.CancelOrReject(context.Background(), first.ID, leave.StatusCancelled, "")
	require.NoError(t, err)

	// Same range again: the cancelled request no longer blocks.
	second := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))
	assert.Equal(t, leave.StatusRequested, second.Status)
}

func TestSubmit_AttachmentRequired(t *testing.T) {
	svc, store := newTestService(t)
	sick := &leave.LeaveType{ID: "sick", Name: "Sick Leave", TotalDays: days(5), RequireAttachment: true}
	require.NoError(t, store.SaveLeaveType(context.Background(), sick))
	_, err := svc.Assign(context.Background(), "emp-1", "sick")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "sick",
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 1),
	})
	assert.ErrorIs(t, err, leave.ErrAttachmentRequired)

	_, err = svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:    "emp-1",
		LeaveTypeID:   "sick",
		StartDate:     date(2024, 3, 1),
		EndDate:       date(2024, 3, 1),
		HasAttachment: true,
	})
	assert.NoError(t, err)
}

func TestSubmit_NoLedgerRow(t *testing.T) {
	svc, store := newTestService(t)
	parental := &leave.LeaveType{ID: "parental", TotalDays: days(30)}
	require.NoError(t, store.SaveLeaveType(context.Background(), parental))

	// emp-1 was never assigned parental leave.
	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "parental",
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 1),
	})
	assert.ErrorIs(t, err, leave.ErrNoLeaveTypeAssigned)
}

func TestSubmit_InsufficientBalance(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "annual",
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 15), // 15 days against a 10-day balance
	})
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestSubmit_HolidayShrinksEffectiveDays(t *testing.T) {
	// GIVEN: 10 available days, a holiday-excluding leave type and a
	// holiday inside the range
	svc, store := newTestService(t)
	ctx := context.Background()

	special := &leave.LeaveType{ID: "special", TotalDays: days(4), ExcludeHoliday: true}
	require.NoError(t, store.SaveLeaveType(ctx, special))
	_, err := svc.Assign(ctx, "emp-1", "special")
	require.NoError(t, err)
	require.NoError(t, store.SaveHoliday(ctx, &calendar.Holiday{
		StartDate: date(2024, 3, 3), EndDate: date(2024, 3, 3),
	}))

	// WHEN: requesting five days with only four in balance
	request, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveTypeID: "special",
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 5),
	})

	// THEN: effective days = 4 fits, requested days stays 5
	require.NoError(t, err)
	assert.True(t, days(5).Equal(request.RequestedDays))
}

func TestSubmit_NegativeEffectiveDaysRejected(t *testing.T) {
	// GIVEN: a half-day two-day request where both dates are excluded
	// holidays, so effective days come out at -0.5
	svc, store := newTestService(t)
	ctx := context.Background()

	special := &leave.LeaveType{ID: "special", TotalDays: days(4), ExcludeHoliday: true}
	require.NoError(t, store.SaveLeaveType(ctx, special))
	_, err := svc.Assign(ctx, "emp-1", "special")
	require.NoError(t, err)
	require.NoError(t, store.SaveHoliday(ctx, &calendar.Holiday{
		StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
	}))

	// WHEN: submitting 2024-03-01..03-02 with a first-half start
	_, err = svc.Submit(ctx, leave.SubmitInput{
		EmployeeID:     "emp-1",
		LeaveTypeID:    "special",
		StartDate:      date(2024, 3, 1),
		EndDate:        date(2024, 3, 2),
		StartBreakdown: leave.FirstHalf,
	})

	// THEN: rejected as insufficient balance, nothing persisted
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	requests, listErr := store.ListRequests(ctx, "emp-1")
	require.NoError(t, listErr)
	assert.Empty(t, requests)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_DebitsAvailableFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	approved, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.True(t, days(5).Equal(approved.ApprovedAvailableDays))
	assert.True(t, approved.ApprovedCarryforwardDays.IsZero())

	balance, err := svc.Balance(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, days(5).Equal(balance.AvailableDays))
}

func TestApprove_SpillsIntoCarryforward(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Shrink available and add carryforward: 3 + 4.
	ledger, err := store.AvailableLeaveFor(ctx, "emp-1", "annual")
	require.NoError(t, err)
	ledger.AvailableDays = days(3)
	ledger.CarryforwardDays = days(4)
	require.NoError(t, store.SaveAvailableLeave(ctx, ledger))

	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))
	approved, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	assert.True(t, days(3).Equal(approved.ApprovedAvailableDays))
	assert.True(t, days(2).Equal(approved.ApprovedCarryforwardDays))

	balance, err := svc.Balance(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, balance.AvailableDays.IsZero())
	assert.True(t, days(2).Equal(balance.CarryforwardDays))
}

func TestApprove_OnlyFromRequested(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	_, err := svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID)
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)

	var ite *leave.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, leave.StatusApproved, ite.From)
}

func TestApprove_ConcurrentCallsDebitOnce(t *testing.T) {
	// Two concurrent approvals of the same request: exactly one debit,
	// the loser fails with InvalidTransition.
	svc, _ := newTestService(t)
	ctx := context.Background()
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, request.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, leave.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := svc.Balance(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, days(5).Equal(balance.AvailableDays), "debited exactly once")
}

// =============================================================================
// CANCEL / REJECT
// =============================================================================

func TestCancel_BeforeApproval_NoLedgerEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	cancelled, err := svc.CancelOrReject(ctx, request.ID, leave.StatusCancelled, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	balance, err := svc.Balance(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, days(10).Equal(balance.AvailableDays))
}

func TestCancel_AfterApproval_RestoresExactBalance(t *testing.T) {
	// GIVEN: a 3+4 split balance and an approved request drawing from both
	svc, store := newTestService(t)
	ctx := context.Background()

	ledger, err := store.AvailableLeaveFor(ctx, "emp-1", "annual")
	require.NoError(t, err)
	ledger.AvailableDays = days(3)
	ledger.CarryforwardDays = days(4)
	require.NoError(t, store.SaveAvailableLeave(ctx, ledger))

	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))
	_, err = svc.Approve(ctx, request.ID)
	require.NoError(t, err)

	// WHEN: cancelling the approved request
	cancelled, err := svc.CancelOrReject(ctx, request.ID, leave.StatusCancelled, "")
	require.NoError(t, err)

	// THEN: both pools are back to their pre-approval values and the
	// recorded split is zeroed
	balance, err := svc.Balance(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, days(3).Equal(balance.AvailableDays))
	assert.True(t, days(4).Equal(balance.CarryforwardDays))
	assert.True(t, cancelled.ApprovedAvailableDays.IsZero())
	assert.True(t, cancelled.ApprovedCarryforwardDays.IsZero())
}

func TestCancelOrReject_TerminalStatesAreFinal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	_, err := svc.CancelOrReject(ctx, request.ID, leave.StatusRejected, "no cover")
	require.NoError(t, err)

	_, err = svc.CancelOrReject(ctx, request.ID, leave.StatusCancelled, "")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)

	_, err = svc.Approve(ctx, request.ID)
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

func TestCancelOrReject_TargetMustBeTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 5))

	_, err := svc.CancelOrReject(context.Background(), request.ID, leave.StatusApproved, "")
	assert.ErrorIs(t, err, leave.ErrInvalidTransition)
}

// =============================================================================
// ALLOCATION
// =============================================================================

func TestAssign_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	again, err := svc.Assign(ctx, "emp-1", "annual")
	require.NoError(t, err)
	assert.True(t, days(10).Equal(again.AvailableDays), "existing row untouched")
}

func TestAllocate_AddsToAvailablePool(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ledger, err := svc.Allocate(ctx, "emp-1", "annual", days(2.5))
	require.NoError(t, err)
	assert.True(t, days(12.5).Equal(ledger.AvailableDays))

	_, err = svc.Allocate(ctx, "emp-1", "annual", days(-1))
	assert.Error(t, err)
}

func TestAllocate_CreatesRowForNewPair(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.SaveLeaveType(ctx, &leave.LeaveType{ID: "comp", TotalDays: decimal.Zero}))

	ledger, err := svc.Allocate(ctx, "emp-2", "comp", days(3))
	require.NoError(t, err)
	assert.True(t, days(3).Equal(ledger.AvailableDays))
	assert.True(t, ledger.CarryforwardDays.IsZero())
}

// Guards against regressions in timestamp handling.
func TestSubmit_SetsTimestamps(t *testing.T) {
	svc, _ := newTestService(t)
	before := time.Now().UTC().Add(-time.Second)

	request := submit(t, svc, date(2024, 3, 1), date(2024, 3, 1))

	assert.True(t, request.CreatedAt.After(before))
	assert.Equal(t, request.CreatedAt, request.UpdatedAt)
}
