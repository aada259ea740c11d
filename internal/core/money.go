package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatLira renders an amount the way Turkish users read it: dot thousands
// separator, comma decimal separator, two decimals and a trailing ₺.
//
// Examples:
//
//	FormatLira(decimal.RequireFromString("12500"))    -> "12.500,00 ₺"
//	FormatLira(decimal.RequireFromString("-624.5"))   -> "-624,50 ₺"
func FormatLira(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString(" ₺")
	return b.String()
}
