package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount    decimal.Decimal
	PaidBy    string
	SplitWith []string
}

// MemberBalance represents the net balance for one group member.
type MemberBalance struct {
	UserID string
	Net    decimal.Decimal // Positive = owed money, Negative = owes money
}

// DebtEdge represents a suggested transfer from one member to another.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// CalculateBalances aggregates net balances across expenses.
// Callers pass only the expenses that still represent outstanding debt.
//
// Algorithm:
// - Payer is credited the full amount
// - Every split member (payer included, if present) is debited their share
//
// Every expense credits exactly what it debits, so the result sums to zero.
func CalculateBalances(expenses []ExpenseForBalance) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)

	for _, e := range expenses {
		shares, err := AllocateShares(e.Amount, e.SplitWith)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate shares: %w", err)
		}

		balances[e.PaidBy] = balances[e.PaidBy].Add(e.Amount)
		for _, s := range shares {
			balances[s.UserID] = balances[s.UserID].Sub(s.Amount)
		}
	}

	return balances, nil
}

// SortedBalances converts a balance map to a slice ordered by user ID.
func SortedBalances(balances map[string]decimal.Decimal) []MemberBalance {
	out := make([]MemberBalance, 0, len(balances))
	for userID, net := range balances {
		out = append(out, MemberBalance{UserID: userID, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// SimplifyDebts suggests transfers that clear every balance.
// Greedy: the largest debtor pays the largest creditor until one side is cleared.
func SimplifyDebts(balances map[string]decimal.Decimal) []DebtEdge {
	var creditors, debtors []MemberBalance
	for userID, net := range balances {
		switch {
		case net.IsPositive():
			creditors = append(creditors, MemberBalance{UserID: userID, Net: net})
		case net.IsNegative():
			debtors = append(debtors, MemberBalance{UserID: userID, Net: net.Neg()})
		}
	}
	byAmountDesc := func(s []MemberBalance) {
		sort.Slice(s, func(i, j int) bool {
			if c := s[i].Net.Cmp(s[j].Net); c != 0 {
				return c > 0
			}
			return s[i].UserID < s[j].UserID
		})
	}
	byAmountDesc(creditors)
	byAmountDesc(debtors)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].Net, creditors[j].Net)
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				From:   debtors[i].UserID,
				To:     creditors[j].UserID,
				Amount: amount,
			})
		}

		debtors[i].Net = debtors[i].Net.Sub(amount)
		creditors[j].Net = creditors[j].Net.Sub(amount)

		if debtors[i].Net.IsZero() {
			i++
		}
		if creditors[j].Net.IsZero() {
			j++
		}
	}

	return edges
}
