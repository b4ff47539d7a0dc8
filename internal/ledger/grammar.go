package ledger

import (
	"regexp"
	"strings"
	"time"

	"folio/internal/model"

	"github.com/shopspring/decimal"
)

// OptionContract is what a grammar extracts from an option row.
type OptionContract struct {
	Underlying string
	Strike     decimal.Decimal
	Expiry     time.Time
	Type       model.OptionType
}

// OptionGrammar recognizes one broker's option notation. Brokers disagree on
// the format, so the parser tries a configurable list in order.
type OptionGrammar interface {
	Name() string
	Parse(symbol, description string) (OptionContract, bool)
}

// DefaultGrammars covers free-text descriptions and OCC-style symbols.
func DefaultGrammars() []OptionGrammar {
	return []OptionGrammar{
		NewDescriptionGrammar(),
		OCCGrammar{},
	}
}

// DescriptionGrammar matches descriptions shaped like
//
//	AAPL JUN 20 2025 $150 CALL
//	SPY 06/20/2025 $500.00 PUT
type DescriptionGrammar struct {
	Pattern     *regexp.Regexp
	DateLayouts []string
}

var descriptionRe = regexp.MustCompile(
	`(?i)^\s*(?P<ticker>[A-Z][A-Z0-9.\-]*)\s+(?P<date>.+?)\s+\$?(?P<strike>[0-9][0-9,]*(?:\.[0-9]+)?)\s+(?P<type>CALL|PUT)\b`)

// NewDescriptionGrammar returns a grammar with the common US broker layouts.
func NewDescriptionGrammar() DescriptionGrammar {
	return DescriptionGrammar{
		Pattern: descriptionRe,
		DateLayouts: []string{
			"Jan 2 2006",
			"Jan 02 2006",
			"January 2 2006",
			"01/02/2006",
			"1/2/2006",
			"01/02/06",
			"2006-01-02",
		},
	}
}

func (g DescriptionGrammar) Name() string { return "description" }

func (g DescriptionGrammar) Parse(_, description string) (OptionContract, bool) {
	m := g.Pattern.FindStringSubmatch(description)
	if m == nil {
		return OptionContract{}, false
	}
	group := func(name string) string {
		if i := g.Pattern.SubexpIndex(name); i >= 0 {
			return m[i]
		}
		return ""
	}

	expiry, ok := parseDate(strings.ReplaceAll(group("date"), ",", ""), g.DateLayouts)
	if !ok {
		return OptionContract{}, false
	}
	strike, err := CleanCurrency(group("strike"))
	if err != nil || !strike.IsPositive() {
		return OptionContract{}, false
	}
	return OptionContract{
		Underlying: strings.ToUpper(group("ticker")),
		Strike:     strike,
		Expiry:     expiry,
		Type:       model.OptionType(strings.ToUpper(group("type"))),
	}, true
}

// OCCGrammar matches OCC option symbols (AAPL250620C00150000) and the broker
// short form with a plain strike (AAPL250620C150).
type OCCGrammar struct{}

var occRe = regexp.MustCompile(`^([A-Z]{1,6})(\d{2})(\d{2})(\d{2})([CP])(\d+(?:\.\d+)?)$`)

var thousand = decimal.NewFromInt(1000)

func (OCCGrammar) Name() string { return "occ" }

func (OCCGrammar) Parse(symbol, _ string) (OptionContract, bool) {
	m := occRe.FindStringSubmatch(strings.ReplaceAll(strings.ToUpper(symbol), " ", ""))
	if m == nil {
		return OptionContract{}, false
	}
	expiry, err := time.Parse("060102", m[2]+m[3]+m[4])
	if err != nil {
		return OptionContract{}, false
	}
	strike, err := decimal.NewFromString(m[6])
	if err != nil {
		return OptionContract{}, false
	}
	// OCC encodes the strike as eight digits with three implied decimals
	if len(m[6]) == 8 && !strings.Contains(m[6], ".") {
		strike = strike.Div(thousand)
	}
	if !strike.IsPositive() {
		return OptionContract{}, false
	}
	typ := model.Call
	if m[5] == "P" {
		typ = model.Put
	}
	return OptionContract{Underlying: m[1], Strike: strike, Expiry: expiry, Type: typ}, true
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
