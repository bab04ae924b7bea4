package shift

import (
	"github.com/shopspring/decimal"
)

// quantityPrecision is the number of decimal places kept when a quantity
// is derived from an amount.
const quantityPrecision = 3

// QuantityFromAmount converts a voucher amount to litres at the given price.
func QuantityFromAmount(amount, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, ErrZeroPrice
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return amount.DivRound(price, quantityPrecision), nil
}

// AmountFromQuantity converts a voucher quantity to money at the given price.
func AmountFromQuantity(qty, price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	if qty.IsNegative() {
		return decimal.Zero, ErrNegativeQuantity
	}
	return qty.Mul(price), nil
}
