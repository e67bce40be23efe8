package core

import "github.com/shopspring/decimal"

// FormatPrice renders an amount as dollars with two decimals, e.g. "$2.50".
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
