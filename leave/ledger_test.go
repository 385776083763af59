package leave_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
)

func ledgerWith(available, carryforward float64) *leave.AvailableLeave {
	return &leave.AvailableLeave{
		EmployeeID:       "emp-1",
		LeaveTypeID:      "annual",
		AvailableDays:    days(available),
		CarryforwardDays: days(carryforward),
	}
}

func TestCheckFeasible(t *testing.T) {
	assert.ErrorIs(t, leave.CheckFeasible(nil, days(1)), leave.ErrNoLeaveTypeAssigned)

	ledger := ledgerWith(3, 2)
	assert.NoError(t, leave.CheckFeasible(ledger, days(5)), "exactly the combined balance is feasible")
	assert.NoError(t, leave.CheckFeasible(ledger, days(0.5)))

	err := leave.CheckFeasible(ledger, days(5.5))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var ibe *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.True(t, days(5).Equal(ibe.Available))
	assert.True(t, days(5.5).Equal(ibe.Requested))
}

func TestCheckFeasible_NegativeEffectiveDays(t *testing.T) {
	// Exclusions can push the effective count below zero; no balance
	// covers that, so it is rejected like any other shortage.
	ledger := ledgerWith(3, 2)

	err := leave.CheckFeasible(ledger, days(-0.5))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestDebit_AvailableFirst(t *testing.T) {
	ledger := ledgerWith(10, 5)

	drawnAvailable, drawnCarryforward, err := leave.Debit(ledger, days(4))
	require.NoError(t, err)

	assert.True(t, days(4).Equal(drawnAvailable))
	assert.True(t, decimal.Zero.Equal(drawnCarryforward))
	assert.True(t, days(6).Equal(ledger.AvailableDays))
	assert.True(t, days(5).Equal(ledger.CarryforwardDays))
}

func TestDebit_SpillsIntoCarryforward(t *testing.T) {
	ledger := ledgerWith(3, 5)

	drawnAvailable, drawnCarryforward, err := leave.Debit(ledger, days(4.5))
	require.NoError(t, err)

	assert.True(t, days(3).Equal(drawnAvailable))
	assert.True(t, days(1.5).Equal(drawnCarryforward))
	assert.True(t, ledger.AvailableDays.IsZero())
	assert.True(t, days(3.5).Equal(ledger.CarryforwardDays))
}

func TestDebit_ExactBalance(t *testing.T) {
	ledger := ledgerWith(2, 3)

	drawnAvailable, drawnCarryforward, err := leave.Debit(ledger, days(5))
	require.NoError(t, err)

	assert.True(t, days(2).Equal(drawnAvailable))
	assert.True(t, days(3).Equal(drawnCarryforward))
	assert.True(t, ledger.AvailableDays.IsZero())
	assert.True(t, ledger.CarryforwardDays.IsZero())
}

func TestDebit_BeyondBalance_NoMutation(t *testing.T) {
	ledger := ledgerWith(2, 1)

	_, _, err := leave.Debit(ledger, days(3.5))

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.True(t, days(2).Equal(ledger.AvailableDays), "ledger untouched on error")
	assert.True(t, days(1).Equal(ledger.CarryforwardDays))
}

func TestCredit_IsExactInverseOfDebit(t *testing.T) {
	ledger := ledgerWith(3, 5)
	beforeAvailable := ledger.AvailableDays
	beforeCarryforward := ledger.CarryforwardDays

	drawnAvailable, drawnCarryforward, err := leave.Debit(ledger, days(6.5))
	require.NoError(t, err)

	leave.Credit(ledger, drawnAvailable, drawnCarryforward)

	assert.True(t, beforeAvailable.Equal(ledger.AvailableDays))
	assert.True(t, beforeCarryforward.Equal(ledger.CarryforwardDays))
}

func TestDebit_NeverNegative_Property(t *testing.T) {
	// Sweep a grid of balances and debit amounts: any debit that
	// CheckFeasible accepts must leave both pools non-negative, and
	// credit must restore the starting state exactly.
	amounts := []float64{0, 0.5, 1, 2.5, 4, 5, 7.5, 10}
	for _, available := range amounts {
		for _, carryforward := range amounts {
			for _, request := range amounts {
				ledger := ledgerWith(available, carryforward)
				if err := leave.CheckFeasible(ledger, days(request)); err != nil {
					continue
				}
				da, dc, err := leave.Debit(ledger, days(request))
				require.NoError(t, err)
				require.False(t, ledger.AvailableDays.IsNegative())
				require.False(t, ledger.CarryforwardDays.IsNegative())
				require.True(t, days(request).Equal(da.Add(dc)), "split sums to the debit")

				leave.Credit(ledger, da, dc)
				require.True(t, days(available).Equal(ledger.AvailableDays))
				require.True(t, days(carryforward).Equal(ledger.CarryforwardDays))
			}
		}
	}
}
