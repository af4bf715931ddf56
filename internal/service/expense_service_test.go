package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
)

type tripFixture struct {
	c                 *testClients
	alice, bob, carol session
	mallory           session
	groupID           string
}

func setupTrip(t *testing.T) *tripFixture {
	t.Helper()
	c := setupMemoryServer(t)
	f := &tripFixture{
		c:       c,
		alice:   c.register(t, "alice"),
		bob:     c.register(t, "bob"),
		carol:   c.register(t, "carol"),
		mallory: c.register(t, "mallory"),
	}

	resp, err := c.groups.CreateGroup.CallUnary(context.Background(), as(f.alice, &CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{f.bob.userID, f.carol.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	f.groupID = resp.Msg.Group.ID
	return f
}

func (f *tripFixture) dinner(t *testing.T) Expense {
	t.Helper()
	resp, err := f.c.expenses.CreateExpense.CallUnary(context.Background(), as(f.alice, &CreateExpenseRequest{
		GroupID:     f.groupID,
		Description: "Dinner",
		Amount:      "90",
		SplitWith:   []string{f.alice.userID, f.bob.userID, f.carol.userID},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func TestCreateExpense(t *testing.T) {
	f := setupTrip(t)
	expense := f.dinner(t)

	if expense.ID == "" {
		t.Error("expected non-empty expense ID")
	}
	if expense.PaidBy != f.alice.userID {
		t.Errorf("paidBy: expected caller %s, got %s", f.alice.userID, expense.PaidBy)
	}
	if expense.Status != "pending" {
		t.Errorf("status: expected pending, got %s", expense.Status)
	}
	if expense.Amount != "90.00" {
		t.Errorf("amount: expected 90.00, got %s", expense.Amount)
	}
	if len(expense.Payments) != 0 {
		t.Errorf("expected no payments, got %d", len(expense.Payments))
	}
}

func TestCreateExpense_Errors(t *testing.T) {
	f := setupTrip(t)
	ctx := context.Background()
	all := []string{f.alice.userID, f.bob.userID, f.carol.userID}

	tests := []struct {
		name   string
		caller session
		req    *CreateExpenseRequest
		want   connect.Code
	}{
		{
			name:   "zero amount",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "0", SplitWith: all},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "not a number",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "ten", SplitWith: all},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "sub-cent amount",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "10.001", SplitWith: all},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "empty split",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "10"},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "split with outsider",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "10", SplitWith: []string{f.alice.userID, f.mallory.userID}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "caller outside group",
			caller: f.mallory,
			req:    &CreateExpenseRequest{GroupID: f.groupID, Amount: "10", SplitWith: all},
			want:   connect.CodePermissionDenied,
		},
		{
			name:   "unknown group",
			caller: f.alice,
			req:    &CreateExpenseRequest{GroupID: "missing", Amount: "10", SplitWith: all},
			want:   connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.c.expenses.CreateExpense.CallUnary(ctx, as(tt.caller, tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestPayExpense_Settles(t *testing.T) {
	f := setupTrip(t)
	ctx := context.Background()
	expense := f.dinner(t)

	payResp, err := f.c.expenses.PayExpense.CallUnary(ctx, as(f.bob, &PayExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("PayExpense failed: %v", err)
	}
	if payResp.Msg.Outcome != "recorded" {
		t.Errorf("outcome: expected recorded, got %s", payResp.Msg.Outcome)
	}
	if payResp.Msg.Expense == nil || payResp.Msg.Expense.Status != "pending" {
		t.Fatalf("expected pending expense in response, got %+v", payResp.Msg.Expense)
	}
	if p := payResp.Msg.Expense.Payments; len(p) != 1 || p[0].UserID != f.bob.userID || p[0].Amount != "30.00" {
		t.Errorf("unexpected payments %+v", p)
	}

	payResp, err = f.c.expenses.PayExpense.CallUnary(ctx, as(f.carol, &PayExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("PayExpense failed: %v", err)
	}
	if payResp.Msg.Outcome != "settled" {
		t.Errorf("outcome: expected settled, got %s", payResp.Msg.Outcome)
	}
	if payResp.Msg.Expense.Status != "paid" {
		t.Errorf("status: expected paid, got %s", payResp.Msg.Expense.Status)
	}

	// Further payments are no-ops.
	payResp, err = f.c.expenses.PayExpense.CallUnary(ctx, as(f.bob, &PayExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("PayExpense failed: %v", err)
	}
	if payResp.Msg.Outcome != "no_such_pending_expense" {
		t.Errorf("outcome: expected no_such_pending_expense, got %s", payResp.Msg.Outcome)
	}

	balResp, err := f.c.groups.GetGroupBalances.CallUnary(ctx, as(f.alice, &GetGroupBalancesRequest{GroupID: f.groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if len(balResp.Msg.Balances) != 0 {
		t.Errorf("expected empty balances once settled, got %+v", balResp.Msg.Balances)
	}
}

func TestPayExpense_Errors(t *testing.T) {
	f := setupTrip(t)
	ctx := context.Background()
	expense := f.dinner(t)

	_, err := f.c.expenses.PayExpense.CallUnary(ctx, as(f.mallory, &PayExpenseRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	resp, err := f.c.expenses.PayExpense.CallUnary(ctx, as(f.bob, &PayExpenseRequest{ExpenseID: "missing"}))
	if err != nil {
		t.Fatalf("PayExpense on missing expense failed: %v", err)
	}
	if resp.Msg.Outcome != "no_such_pending_expense" || resp.Msg.Expense != nil {
		t.Errorf("expected no-op outcome without expense, got %+v", resp.Msg)
	}

	_, err = f.c.expenses.PayExpense.CallUnary(ctx, connect.NewRequest(&PayExpenseRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestCancelExpense(t *testing.T) {
	f := setupTrip(t)
	ctx := context.Background()
	expense := f.dinner(t)

	if _, err := f.c.expenses.PayExpense.CallUnary(ctx, as(f.bob, &PayExpenseRequest{ExpenseID: expense.ID})); err != nil {
		t.Fatalf("PayExpense failed: %v", err)
	}

	_, err := f.c.expenses.CancelExpense.CallUnary(ctx, as(f.mallory, &CancelExpenseRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	resp, err := f.c.expenses.CancelExpense.CallUnary(ctx, as(f.carol, &CancelExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("CancelExpense failed: %v", err)
	}
	if resp.Msg.Outcome != "cancelled" {
		t.Errorf("outcome: expected cancelled, got %s", resp.Msg.Outcome)
	}
	if resp.Msg.Expense.Status != "cancelled" || len(resp.Msg.Expense.Payments) != 1 {
		t.Errorf("expected cancelled expense keeping its payment, got %+v", resp.Msg.Expense)
	}

	resp, err = f.c.expenses.CancelExpense.CallUnary(ctx, as(f.carol, &CancelExpenseRequest{ExpenseID: expense.ID}))
	if err != nil {
		t.Fatalf("second CancelExpense failed: %v", err)
	}
	if resp.Msg.Outcome != "no_such_pending_expense" {
		t.Errorf("outcome: expected no_such_pending_expense, got %s", resp.Msg.Outcome)
	}
}

func TestGetGroupExpenses(t *testing.T) {
	f := setupTrip(t)
	ctx := context.Background()
	first := f.dinner(t)
	second := f.dinner(t)

	resp, err := f.c.expenses.GetGroupExpenses.CallUnary(ctx, as(f.carol, &GetGroupExpensesRequest{GroupID: f.groupID}))
	if err != nil {
		t.Fatalf("GetGroupExpenses failed: %v", err)
	}
	if len(resp.Msg.Expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(resp.Msg.Expenses))
	}
	if resp.Msg.Expenses[0].ID != first.ID || resp.Msg.Expenses[1].ID != second.ID {
		t.Error("expected expenses in creation order")
	}

	_, err = f.c.expenses.GetGroupExpenses.CallUnary(ctx, as(f.mallory, &GetGroupExpensesRequest{GroupID: f.groupID}))
	assertCode(t, err, connect.CodePermissionDenied)
}
