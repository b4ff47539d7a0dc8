// Package risk holds the pure exposure and beta calculations.
package risk

import (
	"errors"
	"fmt"
	"math"

	"folio/internal/model"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when a return series is too short or flat
// to estimate beta.
var ErrInsufficientData = errors.New("insufficient data")

// StockExposure is quantity × price; the sign of quantity carries long/short.
func StockExposure(quantity, price decimal.Decimal) decimal.Decimal {
	return quantity.Mul(price)
}

// OptionExposure is the delta-adjusted share equivalent:
// quantity × 100 × underlying price × delta.
func OptionExposure(quantity, underlyingPrice decimal.Decimal, delta float64) decimal.Decimal {
	return quantity.Mul(model.ContractMultiplier).Mul(underlyingPrice).Mul(decimal.NewFromFloat(delta))
}

// BetaAdjusted scales an exposure by beta.
func BetaAdjusted(exposure decimal.Decimal, beta float64) decimal.Decimal {
	return exposure.Mul(decimal.NewFromFloat(beta))
}

// WeightedBeta is one constituent of a value-weighted beta.
type WeightedBeta struct {
	Value decimal.Decimal
	Beta  float64
}

// PortfolioBeta is the value-weighted average beta. ok is false when there
// is nothing to weight, which callers must report as undefined rather than
// as zero.
func PortfolioBeta(items []WeightedBeta) (beta float64, ok bool) {
	total := decimal.Zero
	weighted := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Value)
		weighted = weighted.Add(it.Value.Mul(decimal.NewFromFloat(it.Beta)))
	}
	if len(items) == 0 || total.IsZero() {
		return 0, false
	}
	return weighted.Div(total).InexactFloat64(), true
}

// Returns converts a close series into simple period returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// BetaFromReturns is cov(asset, benchmark) / var(benchmark) over equally
// long, date-aligned return series.
func BetaFromReturns(asset, benchmark []float64) (float64, error) {
	if len(asset) != len(benchmark) {
		return 0, fmt.Errorf("beta: series length %d vs %d: %w", len(asset), len(benchmark), ErrInsufficientData)
	}
	if len(asset) < 3 {
		return 0, fmt.Errorf("beta: %d observations: %w", len(asset), ErrInsufficientData)
	}
	variance := stat.Variance(benchmark, nil)
	if variance == 0 || math.IsNaN(variance) {
		return 0, fmt.Errorf("beta: flat benchmark: %w", ErrInsufficientData)
	}
	return stat.Covariance(asset, benchmark, nil) / variance, nil
}
