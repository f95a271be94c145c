// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and their two-decimal representation.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount is the first value that no longer fits DECIMAL(10,2).
var maxAmount = decimal.New(1, 8)

// ParseAmount converts a decimal string to Money.
//
// The value must be strictly positive, carry at most two significant
// decimal places and at most ten digits in total. Trailing zeros beyond the
// second decimal are accepted since they do not change the value.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents, nil
//	ParseAmount("12.340") -> 1234 cents, nil
//	ParseAmount("12.345") -> ErrAmountPrecision
//	ParseAmount("0")      -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrAmountRequired
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrAmountNotNumeric
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts an exact decimal value to Money, applying the
// same rules as ParseAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(2)) {
		return Money{}, ErrAmountPrecision
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Decimal().GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m with exactly two fractional digits, e.g. "100.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns the sum of m and o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of m and o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Float returns the value as a float64 for chart rendering only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}
