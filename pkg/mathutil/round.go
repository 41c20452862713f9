// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for display of intermediate amounts such as the pure premium.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundWhole rounds to the nearest whole currency unit, half away from zero.
// The caller must pass a finite value.
func RoundWhole(val float64) int64 {
	return decimal.NewFromFloat(val).Round(0).IntPart()
}

// IsFinite reports whether val is neither NaN nor ±Inf.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}
