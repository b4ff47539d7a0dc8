package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyError is returned when a field is still not numeric after the
// broker formatting has been stripped.
type CurrencyError struct {
	Input string
	Err   error
}

func (e *CurrencyError) Error() string {
	return fmt.Sprintf("parse currency %q: %v", e.Input, e.Err)
}

func (e *CurrencyError) Unwrap() error { return e.Err }

// CleanCurrency converts a broker-formatted amount to a decimal.
//
//	"$1,234.56" -> 1234.56
//	"(500.00)"  -> -500.00
//	"12.5%"     -> 12.5
//	"--", ""    -> 0
func CleanCurrency(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if isBlank(v) {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	v = strings.NewReplacer("$", "", ",", "", " ", "", "%", "").Replace(v)
	v = strings.TrimPrefix(v, "+")
	if v == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &CurrencyError{Input: s, Err: err}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// isBlank reports whether a cell carries no amount.
func isBlank(s string) bool {
	v := strings.TrimSpace(s)
	return v == "" || v == "--"
}
