// Package account aggregates a classified portfolio into values, exposures
// and beta-adjusted risk.
package account

import (
	"context"
	"fmt"
	"time"

	"folio/internal/model"
	"folio/internal/options"
	"folio/internal/risk"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MarketData is the part of a market source the aggregator needs.
type MarketData interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	GetBeta(ctx context.Context, ticker string) (float64, error)
}

// Aggregator derives summaries and exposures from a Portfolio. It never
// mutates the portfolio it is given.
type Aggregator struct {
	source MarketData
	engine *options.Engine
	log    zerolog.Logger
	now    func() time.Time
}

type AggregatorOption func(*Aggregator)

func WithEngine(e *options.Engine) AggregatorOption   { return func(a *Aggregator) { a.engine = e } }
func WithLogger(l zerolog.Logger) AggregatorOption    { return func(a *Aggregator) { a.log = l } }
func WithClock(now func() time.Time) AggregatorOption { return func(a *Aggregator) { a.now = now } }

func NewAggregator(source MarketData, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		source: source,
		engine: options.NewEngine(),
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// BuildPortfolio assembles the immutable portfolio for one load.
func BuildPortfolio(positions []model.Position, pending decimal.Decimal) model.Portfolio {
	return model.NewPortfolio(positions, pending)
}

// Summarize partitions values by position kind and folds in exposure and
// beta. Positions whose exposure cannot be computed are listed in Excluded.
func (a *Aggregator) Summarize(ctx context.Context, p model.Portfolio) (model.PortfolioSummary, error) {
	s, _, err := a.Analyze(ctx, p)
	return s, err
}

// Analyze returns the summary together with the breakdown it was built from.
func (a *Aggregator) Analyze(ctx context.Context, p model.Portfolio) (model.PortfolioSummary, model.ExposureBreakdown, error) {
	b, err := a.Exposures(ctx, p)
	if err != nil {
		return model.PortfolioSummary{}, model.ExposureBreakdown{}, err
	}
	return summarize(p, b), b, nil
}

func summarize(p model.Portfolio, b model.ExposureBreakdown) model.PortfolioSummary {
	s := model.PortfolioSummary{
		PendingActivityValue: p.PendingActivityValue(),
		NetMarketExposure:    b.NetMarketExposure,
		BetaAdjustedExposure: b.BetaAdjustedExposure,
		Excluded:             b.Excluded,
	}
	for _, pos := range p.Positions() {
		mv := pos.MarketValue()
		switch pos.(type) {
		case model.StockPosition:
			s.StockValue = s.StockValue.Add(mv)
		case model.OptionPosition:
			s.OptionValue = s.OptionValue.Add(mv)
		case model.CashPosition:
			s.CashValue = s.CashValue.Add(mv)
		case model.UnknownPosition:
			s.UnknownValue = s.UnknownValue.Add(mv)
		}
	}
	s.TotalValue = s.StockValue.Add(s.OptionValue).Add(s.CashValue).Add(s.UnknownValue).Add(s.PendingActivityValue)

	var weights []risk.WeightedBeta
	for _, e := range b.Positions {
		if e.Kind == model.KindStock {
			weights = append(weights, risk.WeightedBeta{Value: e.MarketValue, Beta: e.Beta})
		}
	}
	if beta, ok := risk.PortfolioBeta(weights); ok {
		s.PortfolioBeta = &beta
	}
	if !s.TotalValue.IsZero() {
		s.NetExposurePct = roundN(s.NetMarketExposure.Div(s.TotalValue).InexactFloat64()*100, 2)
	}
	return s
}

// Exposures computes the signed exposure of every stock and option. Long and
// short are split by the sign of the exposure, not of the quantity. Cash and
// unknown positions carry no market exposure.
func (a *Aggregator) Exposures(ctx context.Context, p model.Portfolio) (model.ExposureBreakdown, error) {
	var b model.ExposureBreakdown
	calcDate := a.now()

	for _, pos := range p.Positions() {
		if err := ctx.Err(); err != nil {
			return model.ExposureBreakdown{}, err
		}

		var (
			e   model.PositionExposure
			err error
		)
		switch v := pos.(type) {
		case model.StockPosition:
			e, err = a.stockExposure(ctx, v)
		case model.OptionPosition:
			e, err = a.optionExposure(ctx, v, calcDate)
		default:
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return model.ExposureBreakdown{}, ctx.Err()
			}
			base := pos.Base()
			a.log.Warn().Err(err).Str("ticker", base.Ticker).Str("kind", string(pos.Kind())).
				Msg("position excluded from exposure")
			b.Excluded = append(b.Excluded, model.ExcludedPosition{
				Ticker: base.Ticker,
				Kind:   pos.Kind(),
				Reason: err.Error(),
			})
			continue
		}

		b.Positions = append(b.Positions, e)
		b.NetMarketExposure = b.NetMarketExposure.Add(e.Exposure)
		b.BetaAdjustedExposure = b.BetaAdjustedExposure.Add(e.BetaAdjusted)

		long := !e.Exposure.IsNegative()
		switch {
		case e.Kind == model.KindStock && long:
			b.LongStockExposure = b.LongStockExposure.Add(e.Exposure)
		case e.Kind == model.KindStock:
			b.ShortStockExposure = b.ShortStockExposure.Add(e.Exposure)
		case long:
			b.LongOptionExposure = b.LongOptionExposure.Add(e.Exposure)
		default:
			b.ShortOptionExposure = b.ShortOptionExposure.Add(e.Exposure)
		}
	}

	a.log.Debug().Int("positions", len(b.Positions)).Int("excluded", len(b.Excluded)).
		Str("net", b.NetMarketExposure.StringFixed(2)).Msg("exposures computed")
	return b, nil
}

func (a *Aggregator) stockExposure(ctx context.Context, s model.StockPosition) (model.PositionExposure, error) {
	beta, err := a.source.GetBeta(ctx, s.Ticker)
	if err != nil {
		return model.PositionExposure{}, fmt.Errorf("beta: %w", err)
	}
	exp := risk.StockExposure(s.Quantity, s.Price)
	return model.PositionExposure{
		Ticker:       s.Ticker,
		Underlying:   s.Ticker,
		Kind:         model.KindStock,
		MarketValue:  s.MarketValue(),
		Exposure:     exp,
		Beta:         beta,
		BetaAdjusted: risk.BetaAdjusted(exp, beta),
	}, nil
}

func (a *Aggregator) optionExposure(ctx context.Context, o model.OptionPosition, calcDate time.Time) (model.PositionExposure, error) {
	if !o.Price.IsPositive() {
		return model.PositionExposure{}, fmt.Errorf("option price %s is not positive", o.Price)
	}
	spot, err := a.source.GetPrice(ctx, o.Underlying)
	if err != nil {
		return model.PositionExposure{}, fmt.Errorf("underlying price: %w", err)
	}
	beta, err := a.source.GetBeta(ctx, o.Underlying)
	if err != nil {
		return model.PositionExposure{}, fmt.Errorf("underlying beta: %w", err)
	}
	delta, _, err := a.engine.PositionDelta(options.ContractFor(o), spot.InexactFloat64(), o.Price.InexactFloat64(), calcDate)
	if err != nil {
		return model.PositionExposure{}, err
	}

	exp := risk.OptionExposure(o.Quantity, spot, delta)
	return model.PositionExposure{
		Ticker:       o.Ticker,
		Underlying:   o.Underlying,
		Kind:         model.KindOption,
		MarketValue:  o.MarketValue(),
		Exposure:     exp,
		Beta:         beta,
		BetaAdjusted: risk.BetaAdjusted(exp, beta),
		Delta:        &delta,
	}, nil
}

// roundN rounds f to n decimal places.
func roundN(f float64, n int) float64 {
	d := decimal.NewFromFloat(f)
	d = d.Round(int32(n))
	v, _ := d.Float64()
	return v
}
