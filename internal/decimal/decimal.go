// Package decimal provides a fixed-scale, non-negative decimal type used
// for every vote quantity, fractional transfer value, and threshold the
// tabulator computes. Native floating point is never used for these
// values: a tabulation run must be bit-reproducible given the same
// configured scale, and IEEE-754 rounding is not reproducible across
// arithmetic orderings.
//
// A Decimal stores an unscaled big.Int mantissa plus the number of
// digits after the decimal point (its scale). Divide and Multiply are
// the only two operations that change scale; both round toward zero
// (truncate), matching the non-negative domain these values live in.
package decimal

import (
	"fmt"
	"math/big"
)

// Decimal is a non-negative rational value with a fixed number of
// digits after the decimal point. The zero value is not valid; use
// Zero, NewFromInt64, or NewFromString.
type Decimal struct {
	unscaled *big.Int
	scale    int
}

// Zero returns the value 0 at the given scale.
func Zero(scale int) Decimal {
	return Decimal{unscaled: big.NewInt(0), scale: scale}
}

// NewFromInt64 constructs a Decimal representing the non-negative
// integer v at the given scale, e.g. NewFromInt64(5, 4) == 5.0000.
// It panics if v is negative; negative vote quantities are a
// programming error, not a recoverable condition.
func NewFromInt64(v int64, scale int) Decimal {
	if v < 0 {
		panic(fmt.Sprintf("decimal: negative value %d", v))
	}
	factor := pow10(scale)
	return Decimal{unscaled: new(big.Int).Mul(big.NewInt(v), factor), scale: scale}
}

// NewFromString parses a non-negative base-10 literal such as "36.6667"
// into a Decimal at the given scale, left-padding or truncating digits
// after the decimal point as needed. Truncation, not rounding, is used
// for any extra digits supplied beyond scale, consistent with Divide
// and Multiply.
func NewFromString(s string, scale int) (Decimal, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Decimal{}, fmt.Errorf("decimal: invalid literal %q", s)
	}
	if r.Sign() < 0 {
		return Decimal{}, fmt.Errorf("decimal: negative literal %q", s)
	}
	return fromRatTruncate(r, scale), nil
}

// Scale returns the number of digits stored after the decimal point.
func (d Decimal) Scale() int { return d.scale }

// Sign returns -1, 0, or +1; non-negative Decimals only ever return 0 or +1.
func (d Decimal) Sign() int { return d.unscaled.Sign() }

// IsZero reports whether d represents the value 0.
func (d Decimal) IsZero() bool { return d.unscaled.Sign() == 0 }

// Cmp compares d to other, which must share the same scale, and
// returns -1, 0, or +1 per the usual convention. It panics on a scale
// mismatch: every value flowing through one tabulation shares the
// contest's configured scale, so a mismatch is a programming error.
func (d Decimal) Cmp(other Decimal) int {
	d.mustMatchScale(other)
	return d.unscaled.Cmp(other.unscaled)
}

// GreaterThan reports whether d > other.
func (d Decimal) GreaterThan(other Decimal) bool { return d.Cmp(other) > 0 }

// LessThan reports whether d < other.
func (d Decimal) LessThan(other Decimal) bool { return d.Cmp(other) < 0 }

// Equal reports whether d == other.
func (d Decimal) Equal(other Decimal) bool { return d.Cmp(other) == 0 }

// Add returns d + other. Both must share the same scale.
func (d Decimal) Add(other Decimal) Decimal {
	d.mustMatchScale(other)
	return Decimal{unscaled: new(big.Int).Add(d.unscaled, other.unscaled), scale: d.scale}
}

// Sub returns d - other, which must be non-negative. Both must share
// the same scale. It panics if the result would be negative: every
// caller in this engine (surplus = votes - threshold) only subtracts
// where the result is known non-negative by the calling invariant.
func (d Decimal) Sub(other Decimal) Decimal {
	d.mustMatchScale(other)
	result := new(big.Int).Sub(d.unscaled, other.unscaled)
	if result.Sign() < 0 {
		panic(fmt.Sprintf("decimal: subtraction underflow %s - %s", d.String(), other.String()))
	}
	return Decimal{unscaled: result, scale: d.scale}
}

// Divide computes a / b, rounded toward zero to the given scale. It
// panics if b is zero: in this engine a division is only ever
// performed by a positive divisor (seats remaining + 1, a winner's own
// vote count), so a zero divisor indicates an invariant violation
// upstream rather than a recoverable input error.
func Divide(a, b Decimal, scale int) Decimal {
	if b.IsZero() {
		panic("decimal: division by zero")
	}
	result := new(big.Rat).Quo(a.rat(), b.rat())
	return fromRatTruncate(result, scale)
}

// Multiply computes a * b, rounded toward zero to the given scale.
func Multiply(a, b Decimal, scale int) Decimal {
	result := new(big.Rat).Mul(a.rat(), b.rat())
	return fromRatTruncate(result, scale)
}

// String renders the value with its full scale, e.g. "36.6667".
func (d Decimal) String() string {
	if d.scale == 0 {
		return d.unscaled.String()
	}
	factor := pow10(d.scale)
	intPart := new(big.Int)
	fracPart := new(big.Int)
	intPart.QuoRem(d.unscaled, factor, fracPart)
	return fmt.Sprintf("%s.%0*s", intPart.String(), d.scale, fracPart.String())
}

// MarshalJSON renders the Decimal as a JSON string so audit records
// survive round-trips without float precision loss.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d Decimal) mustMatchScale(other Decimal) {
	if d.scale != other.scale {
		panic(fmt.Sprintf("decimal: scale mismatch %d vs %d", d.scale, other.scale))
	}
}

func (d Decimal) rat() *big.Rat {
	return new(big.Rat).SetFrac(d.unscaled, pow10(d.scale))
}

// fromRatTruncate converts a non-negative rational to a Decimal at the
// given scale, truncating (rounding toward zero) any remaining
// fractional digits rather than rounding to nearest, so vote totals
// never drift upward across a chain of divisions.
func fromRatTruncate(r *big.Rat, scale int) Decimal {
	factor := pow10(scale)
	scaledNum := new(big.Int).Mul(r.Num(), factor)
	unscaled := new(big.Int).Quo(scaledNum, r.Denom())
	return Decimal{unscaled: unscaled, scale: scale}
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
