// Package mathutil provides common money arithmetic on decimals.
package mathutil

import (
	"github.com/shopspring/decimal"
)

var half = decimal.New(5, -1)

// RoundHalfUp rounds a value to the nearest whole currency unit, with halves
// going towards positive infinity.
func RoundHalfUp(val decimal.Decimal) decimal.Decimal {
	return val.Add(half).Floor()
}

// ApplyRate multiplies an amount by a fractional rate and rounds the product
// once.
func ApplyRate(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(amount.Mul(rate))
}

// IsWhole reports whether a value has no fractional part.
func IsWhole(val decimal.Decimal) bool {
	return val.Equal(val.Truncate(0))
}

// Min returns the smaller of two values.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds up all values.
func Sum(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}

// InUnitInterval reports whether 0 <= val <= 1.
func InUnitInterval(val decimal.Decimal) bool {
	return !val.IsNegative() && val.LessThanOrEqual(decimal.NewFromInt(1))
}

// FromFloat converts a config or file value into a decimal.
func FromFloat(val float64) decimal.Decimal {
	return decimal.NewFromFloat(val)
}
