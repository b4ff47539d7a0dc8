package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"folio/internal/model"
	"folio/internal/options"
	"folio/internal/risk"

	"github.com/shopspring/decimal"
)

// ErrInvalidMove is returned for a market move at or below -100%.
var ErrInvalidMove = errors.New("market move must be greater than -1")

// optionState is an option's pricing inputs fixed at the current market.
type optionState struct {
	pos      model.OptionPosition
	contract options.Contract
	spot     float64
	vol      float64
	base     float64
}

// Simulate reprices the portfolio under uniform moves of every underlying,
// e.g. -0.1 for a 10% drop. Stocks scale with the move; options are
// repriced on the lattice at their implied volatility; cash, unknown
// positions and pending activity are held flat. Options that cannot be
// priced are held at their stored value and reported through the logger.
func (a *Aggregator) Simulate(ctx context.Context, p model.Portfolio, moves []float64) ([]model.SimulationPoint, error) {
	for _, m := range moves {
		if m <= -1 {
			return nil, fmt.Errorf("move %v: %w", m, ErrInvalidMove)
		}
	}

	calcDate := a.now()
	var opts []optionState
	for _, pos := range p.Positions() {
		o, ok := pos.(model.OptionPosition)
		if !ok {
			continue
		}
		st, err := a.optionState(ctx, o, calcDate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn().Err(err).Str("ticker", o.Ticker).Msg("option held flat in simulation")
			continue
		}
		opts = append(opts, st)
	}

	base := summarize(p, model.ExposureBreakdown{}).TotalValue
	points := make([]model.SimulationPoint, 0, len(moves))
	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		factor := decimal.NewFromFloat(1 + m)
		pt := model.SimulationPoint{Move: m, Value: base}

		for _, pos := range p.Positions() {
			s, ok := pos.(model.StockPosition)
			if !ok {
				continue
			}
			moved := s.Price.Mul(factor)
			pt.Value = pt.Value.Add(s.Quantity.Mul(moved).Sub(s.MarketValue()))
			pt.NetMarketExposure = pt.NetMarketExposure.Add(risk.StockExposure(s.Quantity, moved))
		}

		for _, st := range opts {
			spot := st.spot * (1 + m)
			price, err := a.engine.Price(st.contract, spot, st.vol, calcDate)
			if err != nil {
				a.log.Warn().Err(err).Str("ticker", st.pos.Ticker).Float64("move", m).Msg("reprice failed")
				continue
			}
			delta, err := a.engine.Delta(st.contract, spot, st.vol, calcDate)
			if err != nil {
				a.log.Warn().Err(err).Str("ticker", st.pos.Ticker).Float64("move", m).Msg("delta failed")
				continue
			}
			change := decimal.NewFromFloat(price - st.base).Mul(st.pos.Quantity).Mul(model.ContractMultiplier)
			pt.Value = pt.Value.Add(change)
			pt.NetMarketExposure = pt.NetMarketExposure.Add(
				risk.OptionExposure(st.pos.Quantity, decimal.NewFromFloat(spot), delta))
		}

		pt.PnL = pt.Value.Sub(base)
		points = append(points, pt)
	}
	return points, nil
}

func (a *Aggregator) optionState(ctx context.Context, o model.OptionPosition, calcDate time.Time) (optionState, error) {
	if !o.Price.IsPositive() {
		return optionState{}, fmt.Errorf("option price %s is not positive", o.Price)
	}
	spot, err := a.source.GetPrice(ctx, o.Underlying)
	if err != nil {
		return optionState{}, fmt.Errorf("underlying price: %w", err)
	}
	c := options.ContractFor(o)
	s := spot.InexactFloat64()
	vol, err := a.engine.ImpliedVolatility(c, s, o.Price.InexactFloat64(), calcDate)
	if err != nil {
		return optionState{}, err
	}
	// P&L is measured from the model price at today's spot, not the stored price.
	base, err := a.engine.Price(c, s, vol, calcDate)
	if err != nil {
		return optionState{}, err
	}
	return optionState{pos: o, contract: c, spot: s, vol: vol, base: base}, nil
}
