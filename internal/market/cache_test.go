package market

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource records how often each lookup reaches the provider.
type countingSource struct {
	*Static
	calls map[string]int
}

func newCountingSource() *countingSource {
	s := NewStatic().WithPrice("AAPL", "190.5").WithBeta("AAPL", 1.2)
	s.History["AAPL"] = []Bar{{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Close: 190.5}}
	return &countingSource{Static: s, calls: map[string]int{}}
}

func (c *countingSource) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	c.calls["price"]++
	return c.Static.GetPrice(ctx, ticker)
}

func (c *countingSource) GetBeta(ctx context.Context, ticker string) (float64, error) {
	c.calls["beta"]++
	return c.Static.GetBeta(ctx, ticker)
}

func (c *countingSource) GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	c.calls["history"]++
	return c.Static.GetHistoricalData(ctx, ticker, period, interval)
}

func TestCacheMemoryHits(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	c := NewCache(src)

	for i := 0; i < 3; i++ {
		p, err := c.GetPrice(ctx, "aapl")
		require.NoError(t, err)
		assert.Equal(t, "190.5", p.String())
	}
	_, err := c.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	_, err = c.GetBeta(ctx, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls["price"])
	assert.Equal(t, 1, src.calls["beta"])
	assert.Equal(t, CacheStats{Hits: 3, Misses: 2}, c.Stats())
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	c := NewCache(src)

	_, err := c.GetPrice(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.GetPrice(ctx, "MSFT")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.Equal(t, 2, src.calls["price"])
	assert.Equal(t, 2, c.Stats().Errors)
}

func TestCacheTTL(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	c := NewCache(src, WithTTL(time.Hour))
	c.now = func() time.Time { return now }

	_, err := c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	now = now.Add(59 * time.Minute)
	_, err = c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls["price"])

	now = now.Add(2 * time.Minute)
	_, err = c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["price"])
}

func TestCacheDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewCache(newCountingSource(), WithCacheDir(dir))
	_, err := first.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	_, err = first.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	_, err = first.GetHistoricalData(ctx, "AAPL", "1y", Interval1d)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "quote", "hold", "AAPL", "overview.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "quote", "hold", "AAPL", "history_1y_1d.json"))
	require.NoError(t, err)

	src := newCountingSource()
	second := NewCache(src, WithCacheDir(dir))
	p, err := second.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "190.5", p.String())
	b, err := second.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1.2, b)
	bars, err := second.GetHistoricalData(ctx, "AAPL", "1y", Interval1d)
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	assert.Empty(t, src.calls)
	assert.Equal(t, CacheStats{DiskHits: 3}, second.Stats())

	symbols, err := second.CachedSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestCacheResetAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := newCountingSource()
	c := NewCache(src, WithCacheDir(dir))

	_, err := c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, CacheStats{}, c.Stats())
	_, err = c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Stats().DiskHits)

	require.NoError(t, c.Clear())
	_, err = os.Stat(filepath.Join(dir, "quote", "hold"))
	assert.True(t, os.IsNotExist(err))

	_, err = c.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["price"])
}

func TestCachePersistedTotals(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewCache(newCountingSource(), WithCacheDir(dir))
	_, err := first.GetPrice(ctx, "AAPL")
	require.NoError(t, err)
	_, err = first.GetPrice(ctx, "MSFT")
	require.Error(t, err)
	require.NoError(t, first.Persist())
	assert.Equal(t, CacheStats{}, first.Stats())

	second := NewCache(newCountingSource(), WithCacheDir(dir))
	_, err = second.GetPrice(ctx, "AAPL")
	require.NoError(t, err)

	total, err := second.Totals()
	require.NoError(t, err)
	assert.Equal(t, CacheStats{DiskHits: 1, Misses: 2, Errors: 1}, total)

	require.NoError(t, second.Persist())
	require.NoError(t, second.Clear())
	total, err = NewCache(NewStatic(), WithCacheDir(dir)).Totals()
	require.NoError(t, err)
	assert.Equal(t, CacheStats{}, total)
}

func TestCacheDelegatesSymbolChecks(t *testing.T) {
	c := NewCache(NewStatic())
	assert.True(t, c.IsCashLike("SPAXX", ""))
	assert.True(t, c.IsValidSymbol("AAPL"))
	assert.False(t, c.IsValidSymbol("not a ticker"))
}

func TestCacheServesEstimatorHistory(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	aapl, spy := scaledHistory(1.5)
	msft, _ := scaledHistory(0.8)
	src.History["AAPL"] = aapl
	src.History["MSFT"] = msft
	src.History["SPY"] = spy
	delete(src.Betas, "AAPL")
	est := DefaultBetaEstimator()
	src.Estimator = &est

	dir := t.TempDir()
	c := NewCache(src, WithCacheDir(dir))

	beta, err := c.GetBeta(ctx, "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, beta, 1e-9)
	beta, err = c.GetBeta(ctx, "MSFT")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, beta, 1e-9)

	// AAPL, SPY, MSFT: the benchmark is fetched once
	assert.Equal(t, 3, src.calls["history"])
	assert.Equal(t, 2, src.calls["beta"])
	assert.FileExists(t, filepath.Join(dir, "quote", "hold", "SPY", "history_1y_1d.json"))

	_, err = c.GetHistoricalData(ctx, "SPY", "1y", Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls["history"])
	assert.Equal(t, CacheStats{Hits: 2, Misses: 5}, c.Stats())
}
