// Package format renders amounts for people.
package format

import (
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Vietnamese)

// Currency returns an amount rounded to whole dong with Vietnamese digit
// grouping and the currency code, e.g. "1.000.000 VNĐ".
func Currency(amount decimal.Decimal) string {
	return NumericCurrency(amount) + " " + constants.CurrencyCode
}

// NumericCurrency returns the grouped amount without a currency code,
// e.g. "-1.234.567".
func NumericCurrency(amount decimal.Decimal) string {
	return printer.Sprintf("%d", mathutil.RoundHalfUp(amount).IntPart())
}

// Percent renders a fractional rate as a percentage, e.g. 0.015 -> "1,5%".
func Percent(rate decimal.Decimal) string {
	f, _ := rate.Mul(decimal.NewFromInt(100)).Float64()
	return printer.Sprintf("%v%%", f)
}
