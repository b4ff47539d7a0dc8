package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one line of a broker positions export. Columns that are not
// present in the file stay empty.
type Row struct {
	AccountNumber       string `csv:"Account Number"`
	AccountName         string `csv:"Account Name"`
	Symbol              string `csv:"Symbol"`
	Description         string `csv:"Description"`
	Quantity            string `csv:"Quantity"`
	LastPrice           string `csv:"Last Price"`
	LastPriceChange     string `csv:"Last Price Change"`
	CurrentValue        string `csv:"Current Value"`
	TodayGainLossDollar string `csv:"Today's Gain/Loss Dollar"`
	TotalGainLossDollar string `csv:"Total Gain/Loss Dollar"`
	CostBasisTotal      string `csv:"Cost Basis Total"`
	Type                string `csv:"Type"`

	// Line is the 1-based line number in the source file.
	Line int `csv:"-"`
}

// Raw returns the non-empty cells keyed by column name.
func (r Row) Raw() map[string]string {
	raw := map[string]string{}
	for k, v := range map[string]string{
		"Account Number":           r.AccountNumber,
		"Account Name":             r.AccountName,
		"Symbol":                   r.Symbol,
		"Description":              r.Description,
		"Quantity":                 r.Quantity,
		"Last Price":               r.LastPrice,
		"Last Price Change":        r.LastPriceChange,
		"Current Value":            r.CurrentValue,
		"Today's Gain/Loss Dollar": r.TodayGainLossDollar,
		"Total Gain/Loss Dollar":   r.TotalGainLossDollar,
		"Cost Basis Total":         r.CostBasisTotal,
		"Type":                     r.Type,
	} {
		if strings.TrimSpace(v) != "" {
			raw[k] = v
		}
	}
	return raw
}

var pendingActivityRe = regexp.MustCompile(`(?i)^\s*pending\s+activity\s*$`)

// PendingExtractor reads a pending-activity amount from one named column.
type PendingExtractor struct {
	Column  string
	Extract func(Row) string
}

// DefaultPendingColumns is the fallback order used when a pending-activity
// row does not carry its amount in Current Value.
func DefaultPendingColumns() []PendingExtractor {
	return []PendingExtractor{
		{Column: "Current Value", Extract: func(r Row) string { return r.CurrentValue }},
		{Column: "Last Price Change", Extract: func(r Row) string { return r.LastPriceChange }},
		{Column: "Today's Gain/Loss Dollar", Extract: func(r Row) string { return r.TodayGainLossDollar }},
	}
}

// NormalizeSymbol strips whitespace, trailing markers such as "**" and a
// leading "-" (the broker's option marker). dashed reports whether the
// marker was present.
func NormalizeSymbol(symbol string) (ticker string, dashed bool) {
	s := strings.TrimSpace(symbol)
	s = strings.TrimRight(s, "* ")
	if strings.HasPrefix(s, "-") {
		dashed = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	return strings.ToUpper(s), dashed
}

// fields is the numeric part of a row after currency cleaning.
type fields struct {
	quantity  decimal.Decimal
	price     decimal.Decimal
	value     decimal.Decimal
	costBasis *decimal.Decimal
}
