package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CentPlaces is the fixed precision every amount is kept at.
const CentPlaces = 2

var (
	ErrNoMembers     = errors.New("must have at least one member to split with")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSubCentAmount = errors.New("amount cannot have more than two decimal places")
)

// Share is one member's portion of an expense.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// ValidateAmount checks that amount is positive and representable in cents.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(CentPlaces)) {
		return ErrSubCentAmount
	}
	return nil
}

// AllocateShares splits amount equally among members in whole cents.
// The base share is amount / len(members) truncated to cents; the leftover cents
// go one each to the first members in order, so shares always sum to amount.
//
// Example: 100.00 among [A, B, C] gives A=33.34, B=33.33, C=33.33.
func AllocateShares(amount decimal.Decimal, members []string) ([]Share, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %s: %w", amount, err)
	}

	// The remainder is below len(members) cents, so it fits an int.
	base, rem := amount.QuoRem(decimal.NewFromInt(int64(len(members))), CentPlaces)
	leftover := int(rem.Shift(CentPlaces).IntPart())
	cent := decimal.New(1, -CentPlaces)

	shares := make([]Share, len(members))
	for i, m := range members {
		share := base
		if i < leftover {
			share = share.Add(cent)
		}
		shares[i] = Share{UserID: m, Amount: share}
	}
	return shares, nil
}

// BaseShare is amount / n truncated to cents: the share of a member who gets
// none of the leftover cents.
func BaseShare(amount decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	base, _ := amount.QuoRem(decimal.NewFromInt(int64(n)), CentPlaces)
	return base
}

// ShareOf returns what userID owes for an expense of amount split among members.
// Users outside members are quoted the base share.
func ShareOf(amount decimal.Decimal, members []string, userID string) decimal.Decimal {
	shares, err := AllocateShares(amount, members)
	if err != nil {
		return decimal.Zero
	}
	for _, s := range shares {
		if s.UserID == userID {
			return s.Amount
		}
	}
	return BaseShare(amount, len(members))
}
