// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal input is parsed with
// shopspring/decimal and rounded to two places before it becomes cents, so
// arithmetic never touches floating point.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// maxCents bounds amounts so sums over many rows stay far from int64 overflow.
const maxCents = int64(1_000_000_000_00)

// ParseDecimalToCents converts a decimal string to cents, rounding half away
// from zero on the third decimal place.
//
// Both dot (12.34) and comma (12,34) separators are accepted. The sign is kept,
// so range checks are left to the caller (expenses need > 0, budgets >= 0).
//
//	ParseDecimalToCents("12.34")  -> 1234
//	ParseDecimalToCents("12,345") -> 1235
//	ParseDecimalToCents("-5")     -> -500
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return decimalToCents(d)
}

// MoneyFromDecimal rounds d to two places and converts it to Money.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents, err := decimalToCents(d)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func decimalToCents(d decimal.Decimal) (int64, error) {
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "120.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount as a float64 for display purposes only.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON renders the amount as a bare JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	s := strings.Trim(string(data), `"`)
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
