package market

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// YahooSource serves quotes and charts from Yahoo Finance. Yahoo does not
// expose beta on its quote endpoint, so beta is estimated from charts.
type YahooSource struct {
	Symbols
	historyRoute
	beta BetaEstimator
	log  zerolog.Logger
	now  func() time.Time
}

func NewYahooSource(beta BetaEstimator, log zerolog.Logger) *YahooSource {
	return &YahooSource{
		beta: beta,
		log:  log.With().Str("provider", "yahoo").Logger(),
		now:  time.Now,
	}
}

func (s *YahooSource) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	q, err := quote.Get(ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("yahoo quote %s: %w", ticker, err)
	}
	if q == nil {
		return decimal.Zero, unavailable("price", ticker)
	}
	price := q.RegularMarketPrice
	if price <= 0 {
		price = q.RegularMarketPreviousClose
	}
	if price <= 0 {
		return decimal.Zero, unavailable("price", ticker)
	}
	s.log.Debug().Str("symbol", ticker).Float64("last", price).Msg("quote")
	return decimal.NewFromFloat(price), nil
}

func (s *YahooSource) GetBeta(ctx context.Context, ticker string) (float64, error) {
	return s.beta.Estimate(ctx, s.history(s), ticker)
}

func (s *YahooSource) GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	start, err := periodStart(now, period)
	if err != nil {
		return nil, err
	}

	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&now),
		Interval: datetime.Interval(interval),
	})

	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Close:  b.AdjClose.InexactFloat64(),
			Volume: int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, unavailable("history", ticker)
	}
	return bars, nil
}
