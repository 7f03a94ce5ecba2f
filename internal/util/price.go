// Package util provides common utility functions for price calculations.
package util

import "github.com/shopspring/decimal"

// RoundToTick rounds x to the nearest tick increment.
// For example, with tick=0.01, 1.2345 becomes 1.23 or 1.24 depending on rounding.
func RoundToTick(x, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return x
	}
	return x.Div(tick).Round(0).Mul(tick)
}

// SafeDiv divides a by b, returning ok=false when b is zero.
func SafeDiv(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if b.IsZero() {
		return decimal.Zero, false
	}
	return a.Div(b), true
}

// PctOf returns part as a percentage of whole (part/whole*100), or ok=false
// when whole is zero.
func PctOf(part, whole decimal.Decimal) (decimal.Decimal, bool) {
	q, ok := SafeDiv(part, whole)
	if !ok {
		return decimal.Zero, false
	}
	return q.Mul(decimal.NewFromInt(100)), true
}

// ClampScore clamps a score to the [0, 100] range.
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// PositiveOrZero returns d when positive, zero otherwise.
// Used for intrinsic value floors where negative values have no meaning.
func PositiveOrZero(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}
