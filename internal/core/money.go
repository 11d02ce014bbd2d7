// Package core provides money parsing and handling utilities.
//
// Amounts are held as arbitrary precision decimals. Rounding happens only
// when an amount is formatted for display, to two fraction digits with
// half-away-from-zero rounding (the behaviour of decimal.StringFixed).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed decimal amount in the user's display currency.
type Money struct {
	d decimal.Decimal
}

// CurrencySymbol is the fixed display prefix for amounts. Currency is a label,
// never converted.
const CurrencySymbol = "$"

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from minor units.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps
// every fraction digit. Returns ErrInvalidAmount for empty, malformed,
// negative or zero values.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,345") -> 12.345 (no rounding)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Cents returns the amount rounded to minor units.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// Fixed renders the amount with exactly two fraction digits, e.g. "-12.50".
func (m Money) Fixed() string {
	return m.d.StringFixed(2)
}

// Format renders the amount with the currency symbol, e.g. "$12.50" or "-$12.50".
func (m Money) Format() string {
	if m.d.Round(2).IsNegative() {
		return "-" + CurrencySymbol + m.d.Neg().StringFixed(2)
	}
	return CurrencySymbol + m.d.StringFixed(2)
}

// Signed renders a movement amount with an explicit sign: plus for income,
// minus for expense.
func (m Money) Signed(t MovementType) string {
	abs := CurrencySymbol + m.d.Abs().StringFixed(2)
	if t == Income {
		return "+" + abs
	}
	return "-" + abs
}

func (m Money) String() string { return m.d.String() }

// MarshalJSON encodes the amount as a plain JSON number at full precision.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		m.d = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	m.d = d
	return nil
}
