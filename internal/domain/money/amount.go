// Package money implements the fixed-point decimal amount type shared by
// every ledger component. Amounts are never binary floats: all arithmetic
// goes through shopspring/decimal, which keeps an arbitrary-precision
// unscaled integer plus an exponent, so "0.1 + 0.2" is exact.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxFractionalDigits is the maximum number of digits after the decimal
// point a stored amount may carry.
const MaxFractionalDigits = 8

// MaxMagnitude is the largest magnitude a single posting may move.
var MaxMagnitude = decimal.New(1, 7) // 10^7

var (
	ErrNotPositive    = errors.New("amount must be strictly positive")
	ErrTooPrecise     = errors.New("amount has more than 8 fractional digits")
	ErrTooLarge       = errors.New("amount exceeds the maximum magnitude of 10^7")
	ErrInvalidDecimal = errors.New("amount is not a valid decimal number")
)

// Amount is an exact decimal value with bounded precision and magnitude.
// The zero value is not useful; construct with New, NewFromString, or Zero.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the additive identity.
func Zero() Amount { return Amount{d: decimal.Zero} }

// New validates and wraps a decimal.Decimal as a posting magnitude.
// Use this for amounts that must be strictly positive (postings,
// request bodies). For signed journal amounts use NewSigned.
func New(d decimal.Decimal) (Amount, error) {
	if d.Sign() <= 0 {
		return Amount{}, ErrNotPositive
	}
	return newBounded(d)
}

// NewSigned validates and wraps a decimal.Decimal that may be zero or
// negative, such as a journal entry amount or a balance.
func NewSigned(d decimal.Decimal) (Amount, error) {
	return newBounded(d)
}

func newBounded(d decimal.Decimal) (Amount, error) {
	if d.Exponent() < -MaxFractionalDigits {
		// Exponent alone isn't sufficient if the value happens to be exact
		// at a coarser exponent (e.g. 1.00000000 truncates trailing zeros
		// under some constructors); compare against the rounded form.
		if !d.Equal(d.Round(MaxFractionalDigits)) {
			return Amount{}, ErrTooPrecise
		}
	}
	if d.Abs().GreaterThan(MaxMagnitude) {
		return Amount{}, ErrTooLarge
	}
	return Amount{d: d}, nil
}

// NewFromString parses a decimal string (as carried in a JSON request body)
// into a strictly positive Amount.
func NewFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidDecimal, err)
	}
	return New(d)
}

// Decimal returns the underlying decimal.Decimal.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Neg returns the additive inverse.
func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

// Add returns a+b. The result is not re-validated against magnitude bounds
// since intermediate balances may legitimately exceed a single posting's
// cap (a SYSTEM account accumulates many postings).
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Sign returns -1, 0 or 1.
func (a Amount) Sign() int { return a.d.Sign() }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.d.Sign() < 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThanOrEqual reports whether a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.d.GreaterThanOrEqual(b.d) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// String renders the amount at full stored precision.
func (a Amount) String() string { return a.d.String() }

// Within reports whether |a - b| <= tolerance. Used by the audit routine
// to compare a recomputed balance against the cache with a defense-in-depth
// epsilon, even though decimal aggregation is exact.
func Within(a, b, tolerance Amount) bool {
	diff := a.d.Sub(b.d).Abs()
	return diff.LessThanOrEqual(tolerance.d)
}
