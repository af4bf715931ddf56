package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/amencash/internal/calculator"
	"github.com/mmynk/amencash/internal/events"
	"github.com/mmynk/amencash/internal/models"
	"github.com/mmynk/amencash/internal/storage"
)

// CreateExpense logs a pending expense fronted by paidBy and shared equally by splitWith.
// It counts toward the group's balances immediately.
func (e *Engine) CreateExpense(ctx context.Context, groupID, description string, amount decimal.Decimal, paidBy string, splitWith []string) (*models.Expense, error) {
	var out outbox
	expense, err := e.createExpense(ctx, groupID, description, amount, paidBy, splitWith, &out)
	e.observe("create_expense", err)
	e.publish(ctx, out)
	return expense, err
}

func (e *Engine) createExpense(ctx context.Context, groupID, description string, amount decimal.Decimal, paidBy string, splitWith []string, out *outbox) (*models.Expense, error) {
	if err := calculator.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w (got %s)", ErrInvalidAmount, amount)
	}
	if len(splitWith) == 0 {
		return nil, ErrEmptySplit
	}
	seen := make(map[string]bool, len(splitWith))
	for _, userID := range splitWith {
		if seen[userID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSplitMember, userID)
		}
		seen[userID] = true
	}

	unlock, err := e.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	group, err := e.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if e.checkMembership {
		if !group.HasMember(paidBy) {
			return nil, fmt.Errorf("%w: payer %q", ErrNotGroupMember, paidBy)
		}
		for _, userID := range splitWith {
			if !group.HasMember(userID) {
				return nil, fmt.Errorf("%w: %q", ErrNotGroupMember, userID)
			}
		}
	}

	expense := &models.Expense{
		GroupID:     groupID,
		Description: description,
		Amount:      amount,
		PaidBy:      paidBy,
		SplitWith:   append([]string(nil), splitWith...),
		Status:      models.ExpenseStatusPending,
		Payments:    []models.Payment{},
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateExpense(ctx, expense); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	e.logger.InfoContext(ctx, "Expense created",
		"expense_id", expense.ID,
		"group_id", groupID,
		"amount", amount.StringFixed(calculator.CentPlaces),
		"paid_by", paidBy,
		"split_count", len(splitWith),
	)
	e.metrics.ObserveTransition(string(models.ExpenseStatusPending))
	e.raise(out, events.Event{
		Type:      events.ExpenseCreated,
		GroupID:   groupID,
		ExpenseID: expense.ID,
		UserID:    paidBy,
		Amount:    amount.StringFixed(calculator.CentPlaces),
	})

	return expense, nil
}

// PayExpense records userID paying their share of a pending expense. When
// every split member other than the payer has paid, the expense becomes paid.
// Paying a missing or non-pending expense changes nothing and reports
// OutcomeNoSuchPendingExpense.
func (e *Engine) PayExpense(ctx context.Context, expenseID, userID string) (Outcome, error) {
	var out outbox
	outcome, err := e.payExpense(ctx, expenseID, userID, &out)
	if err != nil {
		e.observe("pay_expense", err)
	} else {
		e.metrics.ObserveOperation("pay_expense", outcome.String())
	}
	e.publish(ctx, out)
	return outcome, err
}

func (e *Engine) payExpense(ctx context.Context, expenseID, userID string, out *outbox) (Outcome, error) {
	expense, unlock, err := e.lockPendingExpense(ctx, expenseID)
	if err != nil {
		return OutcomeNone, err
	}
	if expense == nil {
		return OutcomeNoSuchPendingExpense, nil
	}
	defer unlock()

	share := calculator.ShareOf(expense.Amount, expense.SplitWith, userID)
	expense.Payments = append(expense.Payments, models.Payment{
		UserID: userID,
		Amount: share,
		PaidAt: e.now(),
	})

	outcome := OutcomeRecorded
	if isSettled(expense) {
		expense.Status = models.ExpenseStatusPaid
		outcome = OutcomeSettled
	}

	if err := e.store.UpdateExpense(ctx, expense); err != nil {
		return OutcomeNone, fmt.Errorf("failed to record payment: %w", err)
	}

	e.logger.InfoContext(ctx, "Payment recorded",
		"expense_id", expenseID,
		"group_id", expense.GroupID,
		"user_id", userID,
		"in_split", expense.IsSplitMember(userID),
		"amount", share.StringFixed(calculator.CentPlaces),
		"outcome", outcome,
	)
	e.raise(out, events.Event{
		Type:      events.PaymentRecorded,
		GroupID:   expense.GroupID,
		ExpenseID: expenseID,
		UserID:    userID,
		Amount:    share.StringFixed(calculator.CentPlaces),
	})
	if outcome == OutcomeSettled {
		e.metrics.ObserveTransition(string(models.ExpenseStatusPaid))
		e.raise(out, events.Event{
			Type:      events.ExpenseSettled,
			GroupID:   expense.GroupID,
			ExpenseID: expenseID,
		})
	}

	return outcome, nil
}

// isSettled reports whether every split member is the payer or has paid.
func isSettled(expense *models.Expense) bool {
	paid := expense.PaidUserIDs()
	for _, userID := range expense.SplitWith {
		if userID != expense.PaidBy && !paid[userID] {
			return false
		}
	}
	return true
}

// CancelExpense withdraws a pending expense. Recorded payments are kept.
// Cancelling a missing or non-pending expense changes nothing and reports
// OutcomeNoSuchPendingExpense.
func (e *Engine) CancelExpense(ctx context.Context, expenseID string) (Outcome, error) {
	var out outbox
	outcome, err := e.cancelExpense(ctx, expenseID, &out)
	if err != nil {
		e.observe("cancel_expense", err)
	} else {
		e.metrics.ObserveOperation("cancel_expense", outcome.String())
	}
	e.publish(ctx, out)
	return outcome, err
}

func (e *Engine) cancelExpense(ctx context.Context, expenseID string, out *outbox) (Outcome, error) {
	expense, unlock, err := e.lockPendingExpense(ctx, expenseID)
	if err != nil {
		return OutcomeNone, err
	}
	if expense == nil {
		return OutcomeNoSuchPendingExpense, nil
	}
	defer unlock()

	expense.Status = models.ExpenseStatusCancelled
	if err := e.store.UpdateExpense(ctx, expense); err != nil {
		return OutcomeNone, fmt.Errorf("failed to cancel expense: %w", err)
	}

	e.logger.InfoContext(ctx, "Expense cancelled",
		"expense_id", expenseID,
		"group_id", expense.GroupID,
		"payments_kept", len(expense.Payments),
	)
	e.metrics.ObserveTransition(string(models.ExpenseStatusCancelled))
	e.raise(out, events.Event{
		Type:      events.ExpenseCancelled,
		GroupID:   expense.GroupID,
		ExpenseID: expenseID,
	})

	return OutcomeCancelled, nil
}

// lockPendingExpense locks the expense's group and re-reads the expense under
// the lock. It returns a nil expense (and no lock held) when the expense is
// missing or no longer pending.
func (e *Engine) lockPendingExpense(ctx context.Context, expenseID string) (*models.Expense, func(), error) {
	expense, err := e.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if expense.Status.IsTerminal() {
		return nil, nil, nil
	}

	unlock, err := e.locks.Lock(ctx, expense.GroupID)
	if err != nil {
		return nil, nil, err
	}

	expense, err = e.store.GetExpense(ctx, expenseID)
	if err != nil {
		unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if expense.Status.IsTerminal() {
		unlock()
		return nil, nil, nil
	}
	return expense, unlock, nil
}

// GetExpense returns one expense.
func (e *Engine) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := e.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// GetGroupExpenses returns every expense of a group, whatever its status, in creation order.
func (e *Engine) GetGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := e.getGroup(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, err := e.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}
