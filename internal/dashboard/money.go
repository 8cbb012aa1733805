package dashboard

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the currency every amount is rendered in.
const DisplayCurrency = money.USD

// FormatMoney renders amount in DisplayCurrency rounded to digits fraction
// digits, for example FormatMoney(1234.5, 2) == "$1,234.50" and
// FormatMoney(211915000000, 0) == "$211,915,000,000".
func FormatMoney(amount float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	cur := money.GetCurrency(DisplayCurrency)
	f := money.NewFormatter(digits, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)

	dec := decimal.NewFromFloat(amount).Round(int32(digits)).Shift(int32(digits))
	return f.Format(dec.IntPart())
}

// FormatPercent renders a percentage change with an explicit sign.
func FormatPercent(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}
