// Package money handles currency amounts as fixed-point decimals with two
// fractional digits, and conversion to the paise minor units the payment
// gateway wire protocol expects. All arithmetic stays on the decimal
// representation; minor units exist only at the gateway boundary.
package money

import (
	"github.com/shopspring/decimal"

	"school-fees-backend/internal/apperr"
)

var hundred = decimal.NewFromInt(100)

// Validate checks that the amount is positive and carries no more than two
// decimal places.
func Validate(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.ErrInvalidAmount
	}
	if !amount.Mul(hundred).IsInteger() {
		return apperr.ErrInvalidAmount
	}
	return nil
}

// ToPaise converts a rupee amount to integer paise. Amounts that would leave
// a fractional paise are rejected rather than rounded.
func ToPaise(amount decimal.Decimal) (int64, error) {
	if err := Validate(amount); err != nil {
		return 0, err
	}
	return amount.Mul(hundred).IntPart(), nil
}

// FromPaise converts integer paise back to a rupee amount.
func FromPaise(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Shift(-2)
}
