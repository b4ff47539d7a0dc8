package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMarketValue(t *testing.T) {
	cases := []struct {
		name string
		pos  Position
		want string
	}{
		{"long stock", StockPosition{Holding{Ticker: "AAPL", Quantity: dec("10"), Price: dec("150")}}, "1500"},
		{"short stock", StockPosition{Holding{Ticker: "TSLA", Quantity: dec("-5"), Price: dec("200.5")}}, "-1002.5"},
		{"cash", CashPosition{Holding{Ticker: "SPAXX", Quantity: dec("1"), Price: dec("51151.25")}}, "51151.25"},
		{"unknown", UnknownPosition{Holding: Holding{Ticker: "XYZ", Quantity: dec("3"), Price: dec("2")}}, "6"},
		{"long call", OptionPosition{
			Holding:    Holding{Ticker: "-AAPL250620C150", Quantity: dec("2"), Price: dec("3.25")},
			Underlying: "AAPL", Strike: dec("150"), OptionType: Call,
			Expiry: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		}, "650"},
		{"short put", OptionPosition{
			Holding:    Holding{Ticker: "-SPY250620P500", Quantity: dec("-1"), Price: dec("4.10")},
			Underlying: "SPY", Strike: dec("500"), OptionType: Put,
		}, "-410"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, dec(tc.want).Equal(tc.pos.MarketValue()), "got %s", tc.pos.MarketValue())
		})
	}
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindStock, StockPosition{}.Kind())
	assert.Equal(t, KindOption, OptionPosition{}.Kind())
	assert.Equal(t, KindCash, CashPosition{}.Kind())
	assert.Equal(t, KindUnknown, UnknownPosition{}.Kind())
}

func TestPortfolioIsolatedFromCallerSlice(t *testing.T) {
	positions := []Position{
		StockPosition{Holding{Ticker: "AAPL", Quantity: dec("1"), Price: dec("1")}},
	}
	p := NewPortfolio(positions, dec("10"))
	positions[0] = CashPosition{Holding{Ticker: "CASH"}}

	got := p.Positions()
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Base().Ticker)

	got[0] = nil
	assert.NotNil(t, p.Positions()[0])
	assert.True(t, dec("10").Equal(p.PendingActivityValue()))
}

func TestPortfolioSharesNoHoldingData(t *testing.T) {
	cb := dec("100")
	p := NewPortfolio([]Position{
		StockPosition{Holding{
			Ticker:    "AAPL",
			Quantity:  dec("1"),
			Price:     dec("1"),
			CostBasis: &cb,
			RawData:   map[string]string{"Symbol": "AAPL"},
		}},
	}, decimal.Zero)

	first := p.Positions()[0].Base()
	first.RawData["Symbol"] = "MSFT"
	*first.CostBasis = dec("1")
	cb = dec("2")

	again := p.Positions()[0].Base()
	assert.Equal(t, "AAPL", again.RawData["Symbol"])
	require.NotNil(t, again.CostBasis)
	assert.True(t, dec("100").Equal(*again.CostBasis))
}
