package account

import (
	"folio/internal/model"
)

// GroupByTicker collects stock and option positions by underlying, in the
// order each underlying first appears in the portfolio. Exposure totals come
// from b; a position excluded there contributes market value only.
func GroupByTicker(p model.Portfolio, b model.ExposureBreakdown) []model.TickerGroup {
	index := map[string]int{}
	var groups []model.TickerGroup

	group := func(ticker string) *model.TickerGroup {
		i, ok := index[ticker]
		if !ok {
			i = len(groups)
			index[ticker] = i
			groups = append(groups, model.TickerGroup{Ticker: ticker})
		}
		return &groups[i]
	}

	for _, pos := range p.Positions() {
		switch v := pos.(type) {
		case model.StockPosition:
			g := group(v.Ticker)
			g.Stocks = append(g.Stocks, v)
			g.MarketValue = g.MarketValue.Add(v.MarketValue())
		case model.OptionPosition:
			g := group(v.Underlying)
			g.Options = append(g.Options, v)
			g.MarketValue = g.MarketValue.Add(v.MarketValue())
		}
	}

	for _, e := range b.Positions {
		i, ok := index[e.Underlying]
		if !ok {
			continue
		}
		g := &groups[i]
		g.Exposures = append(g.Exposures, e)
		g.NetExposure = g.NetExposure.Add(e.Exposure)
		g.BetaAdjustedExposure = g.BetaAdjustedExposure.Add(e.BetaAdjusted)
		g.Beta = e.Beta
	}
	return groups
}
