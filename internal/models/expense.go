package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the lifecycle state of an expense.
type ExpenseStatus string

const (
	// ExpenseStatusPending means at least one split member still owes their share.
	ExpenseStatusPending ExpenseStatus = "pending"
	// ExpenseStatusPaid means every split member other than the payer has paid.
	ExpenseStatusPaid ExpenseStatus = "paid"
	// ExpenseStatusCancelled means the expense was withdrawn before settlement.
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseStatusPaid || s == ExpenseStatusCancelled
}

// Valid reports whether s is a known status.
func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusPaid, ExpenseStatusCancelled:
		return true
	}
	return false
}

// Payment records one member paying their share of an expense.
type Payment struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paidAt"`
}

// Expense is an amount fronted by PaidBy and owed equally by SplitWith.
// Expenses belong to exactly one group and are only removed when that group is deleted.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the owning group.
	GroupID string `json:"groupId"`

	// Description is free text and may be empty.
	Description string `json:"description"`

	// Amount is the total, always positive, in cents precision.
	Amount decimal.Decimal `json:"amount"`

	// PaidBy is the member who fronted the money.
	PaidBy string `json:"paidBy"`

	// SplitWith is the non-empty list of members sharing the expense.
	// It may include PaidBy.
	SplitWith []string `json:"splitWith"`

	// Status moves from pending to paid or cancelled, never back.
	Status ExpenseStatus `json:"status"`

	// Payments is append-only. Cancelled expenses keep their payments.
	Payments []Payment `json:"payments"`

	// CreatedAt is when the expense was logged.
	CreatedAt time.Time `json:"createdAt"`
}

// PaidUserIDs returns the set of users with at least one recorded payment.
func (e *Expense) PaidUserIDs() map[string]bool {
	paid := make(map[string]bool, len(e.Payments))
	for _, p := range e.Payments {
		paid[p.UserID] = true
	}
	return paid
}

// HasPaid reports whether userID is settled for this expense: either they fronted
// the money or they have recorded a payment.
func (e *Expense) HasPaid(userID string) bool {
	if userID == e.PaidBy {
		return true
	}
	return slices.ContainsFunc(e.Payments, func(p Payment) bool { return p.UserID == userID })
}

// IsSplitMember reports whether userID shares this expense.
func (e *Expense) IsSplitMember(userID string) bool {
	return slices.Contains(e.SplitWith, userID)
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (e *Expense) Clone() *Expense {
	c := *e
	c.SplitWith = slices.Clone(e.SplitWith)
	c.Payments = slices.Clone(e.Payments)
	return &c
}
