package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Static serves fixed prices, betas and histories. It backs the offline
// provider and stands in for network providers in tests.
type Static struct {
	Symbols
	historyRoute
	Prices  map[string]decimal.Decimal `json:"prices"`
	Betas   map[string]float64         `json:"betas"`
	History map[string][]Bar           `json:"history"`

	// Estimator, when set, derives missing betas from History.
	Estimator *BetaEstimator `json:"-"`
}

// NewStatic returns an empty fixture.
func NewStatic() *Static {
	return &Static{
		Prices:  map[string]decimal.Decimal{},
		Betas:   map[string]float64{},
		History: map[string][]Bar{},
	}
}

// LoadStatic reads a quotes file:
//
//	{
//	  "prices": { "AAPL": "187.20", "SPY": "512.10" },
//	  "betas":  { "AAPL": 1.21 }
//	}
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quotes file: %w", err)
	}
	s := NewStatic()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse quotes file: %w", err)
	}
	return s.normalize(), nil
}

// WithPrice sets a price and returns s for chaining.
func (s *Static) WithPrice(ticker, price string) *Static {
	s.Prices[strings.ToUpper(ticker)] = decimal.RequireFromString(price)
	return s
}

// WithBeta sets a beta and returns s for chaining.
func (s *Static) WithBeta(ticker string, beta float64) *Static {
	s.Betas[strings.ToUpper(ticker)] = beta
	return s
}

func (s *Static) GetPrice(_ context.Context, ticker string) (decimal.Decimal, error) {
	p, ok := s.Prices[strings.ToUpper(ticker)]
	if !ok {
		return decimal.Zero, unavailable("price", ticker)
	}
	return p, nil
}

func (s *Static) GetBeta(ctx context.Context, ticker string) (float64, error) {
	if b, ok := s.Betas[strings.ToUpper(ticker)]; ok {
		return b, nil
	}
	if s.Estimator != nil {
		return s.Estimator.Estimate(ctx, s.history(s), ticker)
	}
	return 0, unavailable("beta", ticker)
}

// GetHistoricalData ignores period and interval and returns the stored
// series sorted by date.
func (s *Static) GetHistoricalData(_ context.Context, ticker, _, _ string) ([]Bar, error) {
	bars, ok := s.History[strings.ToUpper(ticker)]
	if !ok {
		return nil, unavailable("history", ticker)
	}
	out := append([]Bar(nil), bars...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Static) normalize() *Static {
	prices := make(map[string]decimal.Decimal, len(s.Prices))
	for k, v := range s.Prices {
		prices[strings.ToUpper(k)] = v
	}
	betas := make(map[string]float64, len(s.Betas))
	for k, v := range s.Betas {
		betas[strings.ToUpper(k)] = v
	}
	history := make(map[string][]Bar, len(s.History))
	for k, v := range s.History {
		history[strings.ToUpper(k)] = v
	}
	s.Prices, s.Betas, s.History = prices, betas, history
	return s
}
