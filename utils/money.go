package utils

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxMinorAmount is the largest amount, in minor units, an invoice may carry.
const MaxMinorAmount = math.MaxInt32

// MinorToUnits converts a payment-rail amount (cents for exponent 2) to wallet units.
func MinorToUnits(minor int64, exponent int32) decimal.Decimal {
	return decimal.New(minor, -exponent)
}

// UnitsToMinor is the inverse of MinorToUnits for payable amounts. Fractions below one
// minor unit and amounts outside (0, MaxMinorAmount] are rejected.
func UnitsToMinor(amount decimal.Decimal, exponent int32) (int64, error) {
	scaled := amount.Shift(exponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, exponent)
	}
	if !scaled.IsPositive() || scaled.GreaterThan(decimal.NewFromInt(MaxMinorAmount)) {
		return 0, fmt.Errorf("amount %s: %w", amount, ErrInvalidAmount)
	}
	return scaled.IntPart(), nil
}

func FormatMoney(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}
