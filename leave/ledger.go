/*
ledger.go - Balance pool arithmetic

The ledger row has two pools: available days (current cycle) and
carryforward days (rolled over, spent last). Debit draws available-first
and reports exactly how much came from each pool; Credit is its exact
inverse and must be fed the recorded split, never a recomputation, because
calendars or the leave type may have changed since approval.

Neither pool ever goes negative. Debit beyond the combined balance is a
contract violation - CheckFeasible is the gate that must have rejected the
request first.
*/
package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckFeasible validates that the ledger row exists and covers the
// effective day count. A negative count means exclusions exceeded the
// requested days; no balance can cover it, so it is rejected the same way.
func CheckFeasible(ledger *AvailableLeave, effectiveDays decimal.Decimal) error {
	if ledger == nil {
		return ErrNoLeaveTypeAssigned
	}
	if effectiveDays.IsNegative() || effectiveDays.GreaterThan(ledger.TotalLeaveDays()) {
		return &InsufficientBalanceError{
			EmployeeID:  ledger.EmployeeID,
			LeaveTypeID: ledger.LeaveTypeID,
			Available:   ledger.TotalLeaveDays(),
			Requested:   effectiveDays,
		}
	}
	return nil
}

// Debit draws days from the available pool first, then from carryforward,
// and returns the split. The ledger is not modified on error.
func Debit(ledger *AvailableLeave, days decimal.Decimal) (drawnAvailable, drawnCarryforward decimal.Decimal, err error) {
	if days.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("debit of negative days %s", days)
	}
	if days.GreaterThan(ledger.TotalLeaveDays()) {
		return decimal.Zero, decimal.Zero, &InsufficientBalanceError{
			EmployeeID:  ledger.EmployeeID,
			LeaveTypeID: ledger.LeaveTypeID,
			Available:   ledger.TotalLeaveDays(),
			Requested:   days,
		}
	}

	if days.GreaterThan(ledger.AvailableDays) {
		drawnAvailable = ledger.AvailableDays
		drawnCarryforward = days.Sub(drawnAvailable)
		ledger.AvailableDays = decimal.Zero
		ledger.CarryforwardDays = ledger.CarryforwardDays.Sub(drawnCarryforward)
	} else {
		drawnAvailable = days
		drawnCarryforward = decimal.Zero
		ledger.AvailableDays = ledger.AvailableDays.Sub(days)
	}
	return drawnAvailable, drawnCarryforward, nil
}

// Credit adds the recorded amounts back to their respective pools.
func Credit(ledger *AvailableLeave, drawnAvailable, drawnCarryforward decimal.Decimal) {
	ledger.AvailableDays = ledger.AvailableDays.Add(drawnAvailable)
	ledger.CarryforwardDays = ledger.CarryforwardDays.Add(drawnCarryforward)
}
