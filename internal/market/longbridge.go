package market

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/longbridge/openapi-go/config"
	"github.com/longbridge/openapi-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxCandlesticks is the most bars the quote API returns per request.
const maxCandlesticks = 1000

// candlePeriods maps history intervals to quote API periods.
var candlePeriods = map[string]quote.Period{
	Interval1d:  quote.PeriodDay,
	Interval1wk: quote.PeriodWeek,
	Interval1mo: quote.PeriodMonth,
}

// LongbridgeSource serves prices and candlesticks from the Longbridge quote
// API. Beta is estimated from candlesticks against the benchmark.
type LongbridgeSource struct {
	Symbols
	historyRoute
	qc     *quote.QuoteContext
	market string
	beta   BetaEstimator
	log    zerolog.Logger
	now    func() time.Time
}

// NewLongbridgeSource opens a quote context from cfg. Callers must Close it.
func NewLongbridgeSource(cfg *config.Config, beta BetaEstimator, log zerolog.Logger) (*LongbridgeSource, error) {
	qc, err := quote.NewFromCfg(cfg)
	if err != nil {
		return nil, fmt.Errorf("quote context init: %w", err)
	}
	return &LongbridgeSource{
		qc:     qc,
		market: "US",
		beta:   beta,
		log:    log.With().Str("provider", "longbridge").Logger(),
		now:    time.Now,
	}, nil
}

func (s *LongbridgeSource) Close() error {
	if s.qc == nil {
		return nil
	}
	return s.qc.Close()
}

func (s *LongbridgeSource) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	symbol := FullSymbol(ticker, s.market)
	quotes, err := s.qc.Quote(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if len(quotes) == 0 {
		return decimal.Zero, unavailable("price", ticker)
	}
	last := decValue(quotes[0].LastDone)
	if !last.IsPositive() {
		last = decValue(quotes[0].PrevClose)
	}
	if !last.IsPositive() {
		return decimal.Zero, unavailable("price", ticker)
	}
	s.log.Debug().Str("symbol", symbol).Str("last", last.String()).Msg("quote")
	return last, nil
}

func (s *LongbridgeSource) GetBeta(ctx context.Context, ticker string) (float64, error) {
	return s.beta.Estimate(ctx, s.history(s), ticker)
}

func (s *LongbridgeSource) GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	p, ok := candlePeriods[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}
	now := s.now()
	start, err := periodStart(now, period)
	if err != nil {
		return nil, err
	}

	symbol := FullSymbol(ticker, s.market)
	sticks, err := s.qc.Candlesticks(ctx, symbol, p, candleCount(now.Sub(start), interval), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("candlesticks %s: %w", symbol, err)
	}

	bars := make([]Bar, 0, len(sticks))
	for _, st := range sticks {
		t := time.Unix(st.Timestamp, 0).UTC()
		if t.Before(start) {
			continue
		}
		bars = append(bars, Bar{Date: t, Close: decFloat(st.Close), Volume: st.Volume})
	}
	if len(bars) == 0 {
		return nil, unavailable("history", ticker)
	}
	return bars, nil
}

// candleCount over-fetches by calendar days; bars before the period start
// are dropped by the caller.
func candleCount(span time.Duration, interval string) int32 {
	days := int(span.Hours()/24) + 1
	n := days
	switch strings.ToLower(interval) {
	case Interval1wk:
		n = days/7 + 1
	case Interval1mo:
		n = days/28 + 1
	}
	if n > maxCandlesticks {
		n = maxCandlesticks
	}
	return int32(n)
}

// decValue converts a possibly nil *decimal.Decimal.
func decValue(d interface{}) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	v := reflect.ValueOf(d)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return decimal.Zero
	}
	switch val := d.(type) {
	case *decimal.Decimal:
		return *val
	case decimal.Decimal:
		return val
	default:
		return decimal.Zero
	}
}

// decFloat safely converts a *decimal.Decimal to float64.
func decFloat(d interface{}) float64 {
	f, _ := decValue(d).Float64()
	return f
}
