package display

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const currency = money.USD

// Money formats an amount as US dollars, e.g. "$1,234.56" or "-$50.00".
func Money(amount decimal.Decimal) string {
	cur := money.GetCurrency(currency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), currency).Display()
}

// SignedMoney is Money with an explicit "+" on positive amounts.
func SignedMoney(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + Money(amount)
	}
	return Money(amount)
}

// Percent formats a value already expressed in percent.
func Percent(p float64) string { return fmt.Sprintf("%.2f%%", p) }

// Beta formats an optional beta; nil is undefined, not zero.
func Beta(b *float64) string {
	if b == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *b)
}

// Delta formats an optional option delta.
func Delta(d *float64) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *d)
}
