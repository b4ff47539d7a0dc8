package market

import (
	"context"
	"fmt"
	"strings"

	"folio/internal/risk"
)

// HistorySource is anything that serves historical closes.
type HistorySource interface {
	GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error)
}

// HistoryRouter is implemented by providers that estimate beta from their
// own history. RouteHistory makes the estimator read through h instead, so a
// Cache wrapping the provider also serves the estimator.
type HistoryRouter interface {
	RouteHistory(h HistorySource)
}

// historyRoute is embedded by providers to implement HistoryRouter.
type historyRoute struct {
	via HistorySource
}

func (r *historyRoute) RouteHistory(h HistorySource) { r.via = h }

func (r *historyRoute) history(self HistorySource) HistorySource {
	if r.via != nil {
		return r.via
	}
	return self
}

// BetaEstimator computes beta from historical closes for providers that do
// not publish it.
type BetaEstimator struct {
	Benchmark string
	Period    string
	Interval  string
}

// DefaultBetaEstimator regresses one year of daily returns on SPY.
func DefaultBetaEstimator() BetaEstimator {
	return BetaEstimator{Benchmark: "SPY", Period: "1y", Interval: Interval1d}
}

// Estimate returns the beta of ticker against the benchmark.
func (b BetaEstimator) Estimate(ctx context.Context, src HistorySource, ticker string) (float64, error) {
	if strings.EqualFold(ticker, b.Benchmark) {
		return 1, nil
	}
	asset, err := src.GetHistoricalData(ctx, ticker, b.Period, b.Interval)
	if err != nil {
		return 0, fmt.Errorf("beta history %s: %w", ticker, err)
	}
	bench, err := src.GetHistoricalData(ctx, b.Benchmark, b.Period, b.Interval)
	if err != nil {
		return 0, fmt.Errorf("beta history %s: %w", b.Benchmark, err)
	}

	assetCloses, benchCloses := alignCloses(asset, bench)
	beta, err := risk.BetaFromReturns(risk.Returns(assetCloses), risk.Returns(benchCloses))
	if err != nil {
		return 0, fmt.Errorf("beta %s: %v: %w", ticker, err, ErrUnavailable)
	}
	return beta, nil
}

// alignCloses keeps the dates present in both series with a positive close
// in each, in asset order.
func alignCloses(asset, bench []Bar) ([]float64, []float64) {
	byDate := make(map[string]float64, len(bench))
	for _, b := range bench {
		if b.Close > 0 {
			byDate[b.Date.UTC().Format("2006-01-02")] = b.Close
		}
	}
	var a, m []float64
	for _, bar := range asset {
		if bar.Close <= 0 {
			continue
		}
		if c, ok := byDate[bar.Date.UTC().Format("2006-01-02")]; ok {
			a = append(a, bar.Close)
			m = append(m, c)
		}
	}
	return a, m
}
