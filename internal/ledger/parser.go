package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"folio/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SymbolChecker is the part of a market-data source the classifier needs.
type SymbolChecker interface {
	IsCashLike(ticker, description string) bool
	IsValidSymbol(ticker string) bool
}

// Parsed is the outcome of one row: either a position or a pending-activity
// amount, never both.
type Parsed struct {
	Position        model.Position
	PendingActivity decimal.Decimal
	IsPending       bool
}

// Parser classifies export rows into positions.
type Parser struct {
	symbols  SymbolChecker
	grammars []OptionGrammar
	pending  []PendingExtractor
	log      zerolog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithGrammars replaces the option grammars tried, in order.
func WithGrammars(g ...OptionGrammar) ParserOption {
	return func(p *Parser) { p.grammars = g }
}

// WithPendingColumns replaces the pending-activity fallback columns.
func WithPendingColumns(e ...PendingExtractor) ParserOption {
	return func(p *Parser) { p.pending = e }
}

func WithLogger(l zerolog.Logger) ParserOption {
	return func(p *Parser) { p.log = l }
}

// NewParser returns a parser using symbols for the cash and ticker checks.
func NewParser(symbols SymbolChecker, opts ...ParserOption) *Parser {
	p := &Parser{
		symbols:  symbols,
		grammars: DefaultGrammars(),
		pending:  DefaultPendingColumns(),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

var optionHintRe = regexp.MustCompile(`(?i)\b(CALL|PUT)\b`)

// ParseRow turns one row into exactly one position or one pending-activity
// amount. The only error is a currency field that cannot be parsed.
func (p *Parser) ParseRow(row Row) (Parsed, error) {
	symbol := strings.TrimSpace(row.Symbol)

	if pendingActivityRe.MatchString(symbol) {
		amount, _, err := p.pendingAmount(row)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{PendingActivity: amount, IsPending: true}, nil
	}
	if symbol == "" {
		amount, ok, err := p.pendingAmount(row)
		if err != nil {
			return Parsed{}, err
		}
		if ok {
			return Parsed{PendingActivity: amount, IsPending: true}, nil
		}
	}

	f, err := parseFields(row)
	if err != nil {
		return Parsed{}, err
	}
	ticker, dashed := NormalizeSymbol(symbol)
	h := model.Holding{
		Ticker:      ticker,
		Quantity:    f.quantity,
		Price:       f.price,
		CostBasis:   f.costBasis,
		Description: strings.TrimSpace(row.Description),
		RawData:     row.Raw(),
	}

	if dashed || optionHintRe.MatchString(row.Description) {
		if c, ok := p.parseOption(ticker, row.Description); ok {
			if h.Price.IsZero() && !h.Quantity.IsZero() {
				h.Price = f.value.Div(h.Quantity.Mul(model.ContractMultiplier))
			}
			return Parsed{Position: model.OptionPosition{
				Holding:    h,
				Underlying: c.Underlying,
				Strike:     c.Strike,
				Expiry:     c.Expiry,
				OptionType: c.Type,
			}}, nil
		}
		p.log.Debug().Str("symbol", symbol).Int("line", row.Line).Msg("option marker without parsable contract")
	}

	if p.symbols.IsCashLike(ticker, row.Description) {
		return Parsed{Position: model.CashPosition{Holding: reconcile(h, f.value)}}, nil
	}

	if ticker != "" && p.symbols.IsValidSymbol(ticker) {
		return Parsed{Position: model.StockPosition{Holding: reconcile(h, f.value)}}, nil
	}

	p.log.Debug().Str("symbol", symbol).Int("line", row.Line).Msg("row kept as unknown position")
	return Parsed{Position: model.UnknownPosition{
		Holding:             reconcile(h, f.value),
		OriginalDescription: row.Description,
	}}, nil
}

// parseOption tries the configured grammars in order.
func (p *Parser) parseOption(ticker, description string) (OptionContract, bool) {
	for _, g := range p.grammars {
		if c, ok := g.Parse(ticker, description); ok {
			return c, true
		}
	}
	return OptionContract{}, false
}

// pendingAmount returns the first non-blank fallback column.
func (p *Parser) pendingAmount(row Row) (decimal.Decimal, bool, error) {
	for _, e := range p.pending {
		raw := e.Extract(row)
		if isBlank(raw) {
			continue
		}
		v, err := CleanCurrency(raw)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("line %d: %s: %w", row.Line, e.Column, err)
		}
		return v, true, nil
	}
	return decimal.Zero, false, nil
}

// reconcile fills in quantity or price from Current Value so that
// quantity × price matches the export when one of them is missing.
func reconcile(h model.Holding, value decimal.Decimal) model.Holding {
	switch {
	case h.Quantity.IsZero() && !value.IsZero():
		h.Quantity = decimal.NewFromInt(1)
		h.Price = value
	case h.Price.IsZero() && !value.IsZero():
		h.Price = value.Div(h.Quantity)
	}
	return h
}

func parseFields(row Row) (fields, error) {
	var f fields
	var err error
	if f.quantity, err = cleanColumn(row, "Quantity", row.Quantity); err != nil {
		return f, err
	}
	if f.price, err = cleanColumn(row, "Last Price", row.LastPrice); err != nil {
		return f, err
	}
	if f.value, err = cleanColumn(row, "Current Value", row.CurrentValue); err != nil {
		return f, err
	}
	if !isBlank(row.CostBasisTotal) {
		cb, err := cleanColumn(row, "Cost Basis Total", row.CostBasisTotal)
		if err != nil {
			return f, err
		}
		f.costBasis = &cb
	}
	return f, nil
}

func cleanColumn(row Row, column, raw string) (decimal.Decimal, error) {
	v, err := CleanCurrency(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d: %s: %w", row.Line, column, err)
	}
	return v, nil
}
