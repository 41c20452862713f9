// Package format renders amounts for human-facing output.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsNegative() {
		return "-$" + group(d.Abs().StringFixed(2))
	}
	return "$" + group(d.StringFixed(2))
}

// WholeCurrency formats a capital already rounded to whole units (e.g., "$854,251,354").
func WholeCurrency(amount int64) string {
	d := decimal.NewFromInt(amount)
	if d.IsNegative() {
		return "-$" + group(d.Abs().String())
	}
	return "$" + group(d.String())
}

// Percent renders a rate such as 0.18 as "18.00%".
func Percent(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).StringFixed(2) + "%"
}

func group(unsigned string) string {
	intPart, decPart, hasDec := strings.Cut(unsigned, ".")
	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}
	if !hasDec {
		return intPart
	}
	return intPart + "." + decPart
}
