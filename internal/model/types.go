package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractMultiplier is the number of shares one listed equity option controls.
var ContractMultiplier = decimal.NewFromInt(100)

// Kind tags the Position variant.
type Kind string

const (
	KindStock   Kind = "stock"
	KindOption  Kind = "option"
	KindCash    Kind = "cash"
	KindUnknown Kind = "unknown"
)

// OptionType is CALL or PUT.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Position is one classified line of a broker export. The set of
// implementations is closed: StockPosition, OptionPosition, CashPosition
// and UnknownPosition. Dispatch with a type switch.
type Position interface {
	Kind() Kind
	Base() Holding
	MarketValue() decimal.Decimal
	position()
}

// Holding carries the fields shared by every position variant.
type Holding struct {
	Ticker      string            `json:"ticker"`
	Quantity    decimal.Decimal   `json:"quantity"`
	Price       decimal.Decimal   `json:"price"`
	CostBasis   *decimal.Decimal  `json:"cost_basis,omitempty"`
	Description string            `json:"description"`
	RawData     map[string]string `json:"-"`
}

func (h Holding) notional() decimal.Decimal { return h.Quantity.Mul(h.Price) }

// clone copies the cost basis and raw row so the result shares nothing.
func (h Holding) clone() Holding {
	if h.CostBasis != nil {
		cb := *h.CostBasis
		h.CostBasis = &cb
	}
	if h.RawData != nil {
		raw := make(map[string]string, len(h.RawData))
		for k, v := range h.RawData {
			raw[k] = v
		}
		h.RawData = raw
	}
	return h
}

// StockPosition is an equity or ETF holding.
type StockPosition struct {
	Holding
}

func (StockPosition) Kind() Kind                     { return KindStock }
func (p StockPosition) Base() Holding                { return p.Holding }
func (p StockPosition) MarketValue() decimal.Decimal { return p.notional() }
func (StockPosition) position()                      {}

// OptionPosition is a listed equity option. Price is the per-share premium.
type OptionPosition struct {
	Holding
	Underlying string          `json:"underlying"`
	Strike     decimal.Decimal `json:"strike"`
	Expiry     time.Time       `json:"expiry"`
	OptionType OptionType      `json:"option_type"`
}

func (OptionPosition) Kind() Kind      { return KindOption }
func (p OptionPosition) Base() Holding { return p.Holding }
func (p OptionPosition) MarketValue() decimal.Decimal {
	return p.notional().Mul(ContractMultiplier)
}
func (OptionPosition) position() {}

// CashPosition is a money-market or sweep balance.
type CashPosition struct {
	Holding
}

func (CashPosition) Kind() Kind                     { return KindCash }
func (p CashPosition) Base() Holding                { return p.Holding }
func (p CashPosition) MarketValue() decimal.Decimal { return p.notional() }
func (CashPosition) position()                      {}

// UnknownPosition keeps a row that could not be classified so totals still
// reconcile with the source file.
type UnknownPosition struct {
	Holding
	OriginalDescription string `json:"original_description"`
}

func (UnknownPosition) Kind() Kind                     { return KindUnknown }
func (p UnknownPosition) Base() Holding                { return p.Holding }
func (p UnknownPosition) MarketValue() decimal.Decimal { return p.notional() }
func (UnknownPosition) position()                      {}

// Portfolio is the immutable result of loading one export.
type Portfolio struct {
	positions            []Position
	pendingActivityValue decimal.Decimal
}

// NewPortfolio deep-copies positions so later changes to the caller's
// values are not observed.
func NewPortfolio(positions []Position, pending decimal.Decimal) Portfolio {
	return Portfolio{positions: clonePositions(positions), pendingActivityValue: pending}
}

// Positions returns a deep copy of the ordered position list.
func (p Portfolio) Positions() []Position { return clonePositions(p.positions) }

func clonePositions(in []Position) []Position {
	out := make([]Position, len(in))
	for i, pos := range in {
		switch v := pos.(type) {
		case StockPosition:
			v.Holding = v.Holding.clone()
			out[i] = v
		case OptionPosition:
			v.Holding = v.Holding.clone()
			out[i] = v
		case CashPosition:
			v.Holding = v.Holding.clone()
			out[i] = v
		case UnknownPosition:
			v.Holding = v.Holding.clone()
			out[i] = v
		default:
			out[i] = pos
		}
	}
	return out
}

func (p Portfolio) Len() int                              { return len(p.positions) }
func (p Portfolio) PendingActivityValue() decimal.Decimal { return p.pendingActivityValue }

// PortfolioSummary is derived on demand from a Portfolio.
type PortfolioSummary struct {
	TotalValue           decimal.Decimal    `json:"total_value"`
	StockValue           decimal.Decimal    `json:"stock_value"`
	OptionValue          decimal.Decimal    `json:"option_value"`
	CashValue            decimal.Decimal    `json:"cash_value"`
	UnknownValue         decimal.Decimal    `json:"unknown_value"`
	PendingActivityValue decimal.Decimal    `json:"pending_activity_value"`
	NetMarketExposure    decimal.Decimal    `json:"net_market_exposure"`
	NetExposurePct       float64            `json:"net_exposure_pct"`
	PortfolioBeta        *float64           `json:"portfolio_beta"`
	BetaAdjustedExposure decimal.Decimal    `json:"beta_adjusted_exposure"`
	Excluded             []ExcludedPosition `json:"excluded,omitempty"`
}

// ExposureBreakdown splits signed exposure by instrument and direction.
type ExposureBreakdown struct {
	LongStockExposure    decimal.Decimal    `json:"long_stock_exposure"`
	ShortStockExposure   decimal.Decimal    `json:"short_stock_exposure"`
	LongOptionExposure   decimal.Decimal    `json:"long_option_exposure"`
	ShortOptionExposure  decimal.Decimal    `json:"short_option_exposure"`
	NetMarketExposure    decimal.Decimal    `json:"net_market_exposure"`
	BetaAdjustedExposure decimal.Decimal    `json:"beta_adjusted_exposure"`
	Positions            []PositionExposure `json:"positions"`
	Excluded             []ExcludedPosition `json:"excluded,omitempty"`
}

// PositionExposure is the computed risk contribution of one position.
type PositionExposure struct {
	Ticker       string          `json:"ticker"`
	Underlying   string          `json:"underlying"`
	Kind         Kind            `json:"kind"`
	MarketValue  decimal.Decimal `json:"market_value"`
	Exposure     decimal.Decimal `json:"exposure"`
	Beta         float64         `json:"beta"`
	BetaAdjusted decimal.Decimal `json:"beta_adjusted"`
	Delta        *float64        `json:"delta,omitempty"`
}

// ExcludedPosition records why a position's exposure could not be computed.
type ExcludedPosition struct {
	Ticker string `json:"ticker"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

// TickerGroup is every stock and option position on one underlying.
type TickerGroup struct {
	Ticker               string             `json:"ticker"`
	Stocks               []StockPosition    `json:"stocks,omitempty"`
	Options              []OptionPosition   `json:"options,omitempty"`
	MarketValue          decimal.Decimal    `json:"market_value"`
	NetExposure          decimal.Decimal    `json:"net_exposure"`
	BetaAdjustedExposure decimal.Decimal    `json:"beta_adjusted_exposure"`
	Beta                 float64            `json:"beta"`
	Exposures            []PositionExposure `json:"exposures"`
}

// SimulationPoint is the portfolio repriced under one uniform market move.
type SimulationPoint struct {
	Move              float64         `json:"move"`
	Value             decimal.Decimal `json:"value"`
	PnL               decimal.Decimal `json:"pnl"`
	NetMarketExposure decimal.Decimal `json:"net_market_exposure"`
}
