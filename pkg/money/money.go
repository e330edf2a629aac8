// Package money keeps all monetary amounts as integer centavos. Decimal
// arithmetic is confined to this package so rounding happens in one place.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// PercentageOf returns pct% of amountCents, rounded half-up to the centavo.
func PercentageOf(amountCents int64, pct decimal.Decimal) int64 {
	result := decimal.NewFromInt(amountCents).Mul(pct).Div(oneHundred)
	return result.Round(0).IntPart()
}

// ClampToRange bounds value to [lo, hi].
func ClampToRange(value, lo, hi int64) int64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// FormatBRL renders cents as a human readable amount, e.g. "R$ 1.234,56".
func FormatBRL(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	reais := amountCents / 100
	cents := amountCents % 100

	intPart := fmt.Sprintf("%d", reais)
	var grouped []byte
	for i, digit := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, digit)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped, cents)
}
