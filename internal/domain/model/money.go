package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a minor-unit amount as a display string, e.g.
// 1500, "usd" -> "15.00 USD".
func FormatAmount(amountCents int64, currency string) string {
	major := decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("%s %s", major.StringFixed(2), strings.ToUpper(currency))
}
