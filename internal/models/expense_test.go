package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExpenseStatus(t *testing.T) {
	tests := []struct {
		status   ExpenseStatus
		valid    bool
		terminal bool
	}{
		{ExpenseStatusPending, true, false},
		{ExpenseStatusPaid, true, true},
		{ExpenseStatusCancelled, true, true},
		{ExpenseStatus("archived"), false, false},
		{ExpenseStatus(""), false, false},
	}

	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.valid {
			t.Errorf("%q.Valid() = %v, want %v", tt.status, got, tt.valid)
		}
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%q.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestExpense_PaymentHelpers(t *testing.T) {
	expense := &Expense{
		Amount:    decimal.NewFromInt(90),
		PaidBy:    "A",
		SplitWith: []string{"A", "B", "C"},
		Status:    ExpenseStatusPending,
		Payments: []Payment{
			{UserID: "B", Amount: decimal.NewFromInt(30), PaidAt: time.Unix(1700000000, 0)},
			{UserID: "B", Amount: decimal.NewFromInt(30), PaidAt: time.Unix(1700000100, 0)},
		},
	}

	paid := expense.PaidUserIDs()
	if len(paid) != 1 || !paid["B"] {
		t.Errorf("PaidUserIDs() = %v, want only B", paid)
	}

	if !expense.HasPaid("A") {
		t.Error("the payer should count as paid")
	}
	if !expense.HasPaid("B") {
		t.Error("B has a payment and should count as paid")
	}
	if expense.HasPaid("C") {
		t.Error("C has not paid")
	}

	if !expense.IsSplitMember("C") {
		t.Error("C should be a split member")
	}
	if expense.IsSplitMember("Z") {
		t.Error("Z should not be a split member")
	}
}

func TestExpense_Clone(t *testing.T) {
	original := &Expense{
		SplitWith: []string{"A", "B"},
		Payments:  []Payment{{UserID: "B", Amount: decimal.NewFromInt(5)}},
	}

	c := original.Clone()
	c.SplitWith[0] = "X"
	c.Payments[0].UserID = "Y"

	if original.SplitWith[0] != "A" || original.Payments[0].UserID != "B" {
		t.Errorf("Clone shares slices with the original: %+v", original)
	}
}
