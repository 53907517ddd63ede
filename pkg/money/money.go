package money

import "github.com/shopspring/decimal"

var centsPerDollar = decimal.NewFromInt(100)

// FromCents converts an integer cent amount into a two-decimal value.
func FromCents(cents int) decimal.Decimal {
	return decimal.NewFromInt(int64(cents)).Div(centsPerDollar)
}

// FormatUSD renders a cent amount as currency text, e.g. 2050 -> "$20.50".
func FormatUSD(cents int) string {
	value := FromCents(cents)
	if cents < 0 {
		return "-$" + value.Abs().StringFixed(2)
	}
	return "$" + value.StringFixed(2)
}
