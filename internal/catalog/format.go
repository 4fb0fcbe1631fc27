package catalog

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var pricePrinter = message.NewPrinter(language.TraditionalChinese)

// FormatPrice renders a price with zh-TW digit grouping (1280 -> "1,280").
// Invalid prices render as the empty string so a missing price collapses to
// an empty UI element instead of a bogus zero.
func FormatPrice(p Price) string {
	if !p.Valid() {
		return ""
	}
	return pricePrinter.Sprint(number.Decimal(p.Value(), number.MaxFractionDigits(2)))
}
