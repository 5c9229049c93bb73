package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupeePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatRupees renders an amount for display, e.g. ₹1,250.50. Amounts are
// rounded when displayed, never at storage.
func FormatRupees(amount float64) string {
	return rupeePrinter.Sprintf("₹%.2f", amount)
}
