package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	thousandsSeparator = "\u00a0"
	minusSign          = "\u2212"
	euroSuffix         = " \u20ac"
	percentSuffix      = " %"
)

// FormatEuros renders an amount the way the published page shows it:
// rounded to cents, thousands grouped with a no-break space, decimal comma,
// whole amounts without ",00". FormatEuros(-1234567.5) is "−1 234 567,50 €".
func FormatEuros(d decimal.Decimal) string {
	return formatNumber(d, 2) + euroSuffix
}

// FormatPercent renders a percentage value (5.53, not 0.0553) as "5,53 %".
func FormatPercent(d decimal.Decimal) string {
	return formatNumber(d, 2) + percentSuffix
}

func formatNumber(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	neg := r.IsNegative()

	fixed := r.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteString(minusSign)
	}
	b.WriteString(group(intPart))
	if strings.Trim(frac, "0") != "" {
		b.WriteString(",")
		b.WriteString(frac)
	}
	return b.String()
}

// group inserts the thousands separator into a string of digits.
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(thousandsSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
