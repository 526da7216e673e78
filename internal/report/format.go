package report

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"BRL": "R$",
}

// Money formats v with two decimals, thousands separators and the
// currency symbol (or ISO code) of currency.
func Money(v float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if sym, ok := currencySymbols[currency]; ok {
		return sign + sym + printer.Sprintf("%.2f", v)
	}
	if currency == "" {
		return sign + printer.Sprintf("%.2f", v)
	}
	return sign + currency + " " + printer.Sprintf("%.2f", v)
}

// Number formats an integer count with thousands separators.
func Number(n int64) string {
	return printer.Sprintf("%d", n)
}

// Decimal formats v with two decimals and thousands separators.
func Decimal(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Percent formats a value already expressed in percent.
func Percent(v float64) string {
	return printer.Sprintf("%.2f%%", v)
}

// SignedPercent formats a period-over-period change, always with a sign.
func SignedPercent(v float64) string {
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}

// Ratio formats ROAS-style multipliers ("2.50x").
func Ratio(v float64) string {
	return printer.Sprintf("%.2fx", v)
}
