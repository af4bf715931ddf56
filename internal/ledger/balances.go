package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/amencash/internal/calculator"
	"github.com/mmynk/amencash/internal/models"
)

// BalanceReport is a group's outstanding position.
type BalanceReport struct {
	GroupID string
	// Balances are ordered by user ID. Positive means owed money.
	Balances []calculator.MemberBalance
	// Transfers settle every balance when carried out.
	Transfers []calculator.DebtEdge
}

// CalculateGroupBalances recomputes each user's net position from the group's
// pending expenses. Paid and cancelled expenses contribute nothing.
// Users never involved in a pending expense are absent. The values sum to zero.
func (e *Engine) CalculateGroupBalances(ctx context.Context, groupID string) (map[string]decimal.Decimal, error) {
	expenses, err := e.GetGroupExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var pending []calculator.ExpenseForBalance
	for _, expense := range expenses {
		if expense.Status != models.ExpenseStatusPending {
			continue
		}
		pending = append(pending, calculator.ExpenseForBalance{
			Amount:    expense.Amount,
			PaidBy:    expense.PaidBy,
			SplitWith: expense.SplitWith,
		})
	}

	balances, err := calculator.CalculateBalances(pending)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate balances: %w", err)
	}
	return balances, nil
}

// GroupBalances is CalculateGroupBalances plus suggested settle-up transfers.
func (e *Engine) GroupBalances(ctx context.Context, groupID string) (*BalanceReport, error) {
	balances, err := e.CalculateGroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &BalanceReport{
		GroupID:   groupID,
		Balances:  calculator.SortedBalances(balances),
		Transfers: calculator.SimplifyDebts(balances),
	}, nil
}
