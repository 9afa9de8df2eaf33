package report

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount as dollars with grouped thousands and two
// decimals, e.g. "$1,234.50" or "-$40.00".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	return sign + "$" + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatDate renders a record date, or a dash for undated records.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format("Jan 2, 2006")
}

// FormatCount renders an integer with grouped thousands.
func FormatCount(n int) string {
	return printer.Sprint(number.Decimal(n))
}
