package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/amencash/internal/ledger"
)

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	engine *ledger.Engine
}

// NewExpenseService creates a new ExpenseService on top of the ledger.
func NewExpenseService(engine *ledger.Engine) *ExpenseService {
	return &ExpenseService{engine: engine}
}

// CreateExpense logs a pending expense in a group the caller belongs to.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"split_count", len(req.Msg.SplitWith),
	)

	_, userID, err := requireMember(ctx, s.engine, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q is not a number", ledger.ErrInvalidAmount, req.Msg.Amount))
	}

	paidBy := req.Msg.PaidBy
	if paidBy == "" {
		paidBy = userID
	}

	expense, err := s.engine.CreateExpense(ctx, req.Msg.GroupID, req.Msg.Description, amount, paidBy, req.Msg.SplitWith)
	if err != nil {
		slog.Warn("CreateExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

// GetGroupExpenses lists every expense of a group in creation order.
func (s *ExpenseService) GetGroupExpenses(ctx context.Context, req *connect.Request[GetGroupExpensesRequest]) (*connect.Response[GetGroupExpensesResponse], error) {
	slog.Info("GetGroupExpenses request received", "group_id", req.Msg.GroupID)

	if _, _, err := requireMember(ctx, s.engine, req.Msg.GroupID); err != nil {
		return nil, err
	}

	expenses, err := s.engine.GetGroupExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroupExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	resp := &GetGroupExpensesResponse{Expenses: make([]Expense, len(expenses))}
	for i, e := range expenses {
		resp.Expenses[i] = toExpense(e)
	}

	slog.Info("GetGroupExpenses successful", "group_id", req.Msg.GroupID, "count", len(expenses))

	return connect.NewResponse(resp), nil
}

// PayExpense records the caller paying their share.
func (s *ExpenseService) PayExpense(ctx context.Context, req *connect.Request[PayExpenseRequest]) (*connect.Response[PayExpenseResponse], error) {
	slog.Info("PayExpense request received", "expense_id", req.Msg.ExpenseID)

	userID, ok, err := s.authorizeExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return connect.NewResponse(&PayExpenseResponse{Outcome: ledger.OutcomeNoSuchPendingExpense.String()}), nil
	}

	outcome, err := s.engine.PayExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		slog.Error("PayExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("PayExpense done", "expense_id", req.Msg.ExpenseID, "user_id", userID, "outcome", outcome)

	return connect.NewResponse(&PayExpenseResponse{
		Outcome: outcome.String(),
		Expense: s.currentExpense(ctx, req.Msg.ExpenseID),
	}), nil
}

// CancelExpense withdraws a pending expense. Any group member may cancel.
func (s *ExpenseService) CancelExpense(ctx context.Context, req *connect.Request[CancelExpenseRequest]) (*connect.Response[CancelExpenseResponse], error) {
	slog.Info("CancelExpense request received", "expense_id", req.Msg.ExpenseID)

	userID, ok, err := s.authorizeExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return connect.NewResponse(&CancelExpenseResponse{Outcome: ledger.OutcomeNoSuchPendingExpense.String()}), nil
	}

	outcome, err := s.engine.CancelExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("CancelExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("CancelExpense done", "expense_id", req.Msg.ExpenseID, "user_id", userID, "outcome", outcome)

	return connect.NewResponse(&CancelExpenseResponse{
		Outcome: outcome.String(),
		Expense: s.currentExpense(ctx, req.Msg.ExpenseID),
	}), nil
}

// authorizeExpense checks the caller belongs to the expense's group. ok is
// false when the expense does not exist, which callers report as a no-op.
func (s *ExpenseService) authorizeExpense(ctx context.Context, expenseID string) (userID string, ok bool, err error) {
	userID, err = callerID(ctx)
	if err != nil {
		return "", false, err
	}

	expense, err := s.engine.GetExpense(ctx, expenseID)
	if err != nil {
		if errors.Is(err, ledger.ErrExpenseNotFound) {
			return userID, false, nil
		}
		return "", false, connectError(err)
	}

	if _, _, err := requireMember(ctx, s.engine, expense.GroupID); err != nil {
		if connect.CodeOf(err) == connect.CodeNotFound {
			return userID, false, nil
		}
		return "", false, err
	}
	return userID, true, nil
}

// currentExpense re-reads an expense for the response, nil if it is gone.
func (s *ExpenseService) currentExpense(ctx context.Context, expenseID string) *Expense {
	expense, err := s.engine.GetExpense(ctx, expenseID)
	if err != nil {
		return nil
	}
	out := toExpense(expense)
	return &out
}
