package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders minor units as a major-unit string, e.g. 1000 -> "10.00".
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// PayLabel is the checkout button caption for the configured amount.
func PayLabel(minor int64, currency string) string {
	amount := decimal.New(minor, -2)
	text := amount.StringFixed(2)
	if amount.IsInteger() {
		text = amount.StringFixed(0)
	}
	if strings.EqualFold(currency, "usd") {
		return "Pay $" + text
	}
	return "Pay " + text + " " + strings.ToUpper(currency)
}
