// Package market defines the market-data capability the pipeline consumes and
// the providers, fixtures and cache that implement it.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when a provider has no value for a ticker.
var ErrUnavailable = errors.New("market data unavailable")

// Source is the market-data capability used by the classifier and the
// aggregator. Implementations must be safe to call sequentially; none of the
// pipeline calls them concurrently.
type Source interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	GetBeta(ctx context.Context, ticker string) (float64, error)
	GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error)
	IsCashLike(ticker, description string) bool
	IsValidSymbol(ticker string) bool
}

// Bar is one close of a historical series.
type Bar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

const (
	Interval1d  = "1d"
	Interval1wk = "1wk"
	Interval1mo = "1mo"
)

// periodStart resolves a lookback such as "6mo", "1y" or "5y".
func periodStart(now time.Time, period string) (time.Time, error) {
	var n int
	var unit string
	if _, err := fmt.Sscanf(period, "%d%s", &n, &unit); err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}
	switch unit {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid period %q", period)
}

func unavailable(what, ticker string) error {
	return fmt.Errorf("%s %s: %w", what, ticker, ErrUnavailable)
}
