package ledger

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every input validation error.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrValidation)
	ErrEmptySplit           = fmt.Errorf("%w: must have at least one member to split with", ErrValidation)
	ErrDuplicateSplitMember = fmt.Errorf("%w: split members must be unique", ErrValidation)
	ErrEmptyGroupName       = fmt.Errorf("%w: group name is required", ErrValidation)
	ErrMissingUser          = fmt.Errorf("%w: user id is required", ErrValidation)
	ErrNotGroupMember       = fmt.Errorf("%w: user is not a member of the group", ErrValidation)
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrHasUnsettledExpenses is wrapped by *InvariantViolationError.
	ErrHasUnsettledExpenses = errors.New("group has unsettled expenses")

	// ErrNoSuchPendingExpense is what OutcomeNoSuchPendingExpense.Err returns.
	ErrNoSuchPendingExpense = errors.New("no such pending expense")
)

// InvariantViolationError reports an operation refused because it would
// break a ledger invariant. Nothing was changed.
type InvariantViolationError struct {
	GroupID string
	// Pending is the number of blocking expenses, 0 if unknown.
	Pending int
}

func (e *InvariantViolationError) Error() string {
	if e.Pending > 0 {
		return fmt.Sprintf("cannot delete group %s: %d pending expense(s) must be paid or cancelled first", e.GroupID, e.Pending)
	}
	return fmt.Sprintf("cannot delete group %s: pending expenses must be paid or cancelled first", e.GroupID)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrHasUnsettledExpenses
}
