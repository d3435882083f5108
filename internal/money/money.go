// Package money provides a fixed-point currency value with two minor digits.
//
// Every Money value is kept rounded to cents, so sums and differences are
// exact and an amount split into parts always adds back up to the original.
// Multiplication by a fractional factor rounds half-to-even (banker's
// rounding) back to cents.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor digits kept by Money.
const Scale = 2

// Money is an immutable currency amount.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// ErrOverflow is returned when an amount does not fit in int64 cents.
var ErrOverflow = errors.New("money: amount out of range")

// FromCents builds an amount from integer minor units.
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -Scale)}
}

// FromDecimal rounds d half-to-even to cents.
func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.RoundBank(Scale)}
}

// Parse reads a decimal string such as "12.50".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in integer minor units. Amounts beyond the int64
// range fail with ErrOverflow instead of wrapping.
func (m Money) Cents() (int64, error) {
	cents := m.amount.Shift(Scale).BigInt()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, m)
	}
	return cents.Int64(), nil
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

// MulInt multiplies by a whole number; the result is exact.
func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n))}
}

// MulRate multiplies by a fractional factor and rounds half-to-even.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return FromDecimal(m.amount.Mul(rate))
}

// Cmp compares m and o and returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

// Equal reports whether m and o are the same amount.
func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.amount.StringFixed(Scale)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money amount: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}
