package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultCacheTTL is how long a fetched value is served without refetching.
const DefaultCacheTTL = 24 * time.Hour

// CacheStats counts lookups since the last Reset.
type CacheStats struct {
	Hits     int `json:"hits"`
	DiskHits int `json:"disk_hits"`
	Misses   int `json:"misses"`
	Errors   int `json:"errors"`
}

type entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// overview is the per-symbol file under <dir>/quote/hold/<SYMBOL>/.
type overview struct {
	Symbol string                  `json:"symbol"`
	Price  *entry[decimal.Decimal] `json:"price,omitempty"`
	Beta   *entry[float64]         `json:"beta,omitempty"`
}

// Cache wraps a Source and memoizes prices, betas and histories in memory
// and, when a directory is configured, on disk. Failed lookups are not cached.
type Cache struct {
	src Source
	dir string
	ttl time.Duration
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	prices  map[string]entry[decimal.Decimal]
	betas   map[string]entry[float64]
	history map[string]entry[[]Bar]
	stats   CacheStats
}

type CacheOption func(*Cache)

// WithCacheDir persists entries under dir. An empty dir keeps the cache in memory.
func WithCacheDir(dir string) CacheOption   { return func(c *Cache) { c.dir = dir } }
func WithTTL(ttl time.Duration) CacheOption { return func(c *Cache) { c.ttl = ttl } }
func WithCacheLogger(l zerolog.Logger) CacheOption {
	return func(c *Cache) { c.log = l.With().Str("component", "cache").Logger() }
}

func NewCache(src Source, opts ...CacheOption) *Cache {
	c := &Cache{
		src:     src,
		ttl:     DefaultCacheTTL,
		log:     zerolog.Nop(),
		now:     time.Now,
		prices:  map[string]entry[decimal.Decimal]{},
		betas:   map[string]entry[float64]{},
		history: map[string]entry[[]Bar]{},
	}
	for _, o := range opts {
		o(c)
	}
	if r, ok := src.(HistoryRouter); ok {
		r.RouteHistory(c)
	}
	return c
}

func (c *Cache) IsCashLike(ticker, description string) bool {
	return c.src.IsCashLike(ticker, description)
}

func (c *Cache) IsValidSymbol(ticker string) bool { return c.src.IsValidSymbol(ticker) }

// GetPrice, GetBeta and GetHistoricalData hold c.mu only around map and disk
// access, never across the provider call: a provider estimating beta reads
// its history back through this cache.
func (c *Cache) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	key := strings.ToUpper(ticker)
	if p, ok := c.cachedPrice(key); ok {
		return p, nil
	}

	p, err := c.src.GetPrice(ctx, ticker)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Errors++
		return decimal.Zero, err
	}
	e := entry[decimal.Decimal]{Value: p, FetchedAt: c.now()}
	c.prices[key] = e
	c.updateOverview(key, func(ov *overview) { ov.Price = &e })
	return p, nil
}

func (c *Cache) cachedPrice(key string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.prices[key]; ok && c.fresh(e.FetchedAt) {
		c.stats.Hits++
		return e.Value, true
	}
	if ov := c.readOverview(key); ov != nil && ov.Price != nil && c.fresh(ov.Price.FetchedAt) {
		c.stats.DiskHits++
		c.prices[key] = *ov.Price
		return ov.Price.Value, true
	}
	c.stats.Misses++
	return decimal.Zero, false
}

func (c *Cache) GetBeta(ctx context.Context, ticker string) (float64, error) {
	key := strings.ToUpper(ticker)
	if b, ok := c.cachedBeta(key); ok {
		return b, nil
	}

	b, err := c.src.GetBeta(ctx, ticker)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Errors++
		return 0, err
	}
	e := entry[float64]{Value: b, FetchedAt: c.now()}
	c.betas[key] = e
	c.updateOverview(key, func(ov *overview) { ov.Beta = &e })
	return b, nil
}

func (c *Cache) cachedBeta(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.betas[key]; ok && c.fresh(e.FetchedAt) {
		c.stats.Hits++
		return e.Value, true
	}
	if ov := c.readOverview(key); ov != nil && ov.Beta != nil && c.fresh(ov.Beta.FetchedAt) {
		c.stats.DiskHits++
		c.betas[key] = *ov.Beta
		return ov.Beta.Value, true
	}
	c.stats.Misses++
	return 0, false
}

func (c *Cache) GetHistoricalData(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	symbol := strings.ToUpper(ticker)
	key := symbol + "/" + period + "/" + interval
	path := c.historyPath(symbol, period, interval)
	if bars, ok := c.cachedHistory(key, path); ok {
		return bars, nil
	}

	bars, err := c.src.GetHistoricalData(ctx, ticker, period, interval)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Errors++
		return nil, err
	}
	e := entry[[]Bar]{Value: bars, FetchedAt: c.now()}
	c.history[key] = e
	if path != "" {
		if err := writeJSON(path, e); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("history cache write failed")
		}
	}
	return append([]Bar(nil), bars...), nil
}

func (c *Cache) cachedHistory(key, path string) ([]Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.history[key]; ok && c.fresh(e.FetchedAt) {
		c.stats.Hits++
		return append([]Bar(nil), e.Value...), true
	}
	if path != "" {
		var e entry[[]Bar]
		if readJSON(path, &e) == nil && c.fresh(e.FetchedAt) {
			c.stats.DiskHits++
			c.history[key] = e
			return append([]Bar(nil), e.Value...), true
		}
	}
	c.stats.Misses++
	return nil, false
}

// Stats returns the counters since the last Reset.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Reset drops in-memory entries and zeroes the counters. Disk entries stay.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices = map[string]entry[decimal.Decimal]{}
	c.betas = map[string]entry[float64]{}
	c.history = map[string]entry[[]Bar]{}
	c.stats = CacheStats{}
}

// Clear resets the cache and removes everything it persisted.
func (c *Cache) Clear() error {
	c.Reset()
	if c.dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.holdDir()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if err := os.Remove(c.statsPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Persist adds the counters since the last Reset to the totals kept under
// <dir>/quote/stats.json and zeroes them. Without a directory it is a no-op.
func (c *Cache) Persist() error {
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	total, err := c.readTotals()
	if err != nil {
		return err
	}
	total.add(c.stats)
	if err := writeJSON(c.statsPath(), total); err != nil {
		return fmt.Errorf("persist cache stats: %w", err)
	}
	c.stats = CacheStats{}
	return nil
}

// Totals returns the persisted counters plus those not yet persisted.
func (c *Cache) Totals() (CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total, err := c.readTotals()
	if err != nil {
		return CacheStats{}, err
	}
	total.add(c.stats)
	return total, nil
}

func (c *Cache) readTotals() (CacheStats, error) {
	var total CacheStats
	if c.dir == "" {
		return total, nil
	}
	err := readJSON(c.statsPath(), &total)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return CacheStats{}, fmt.Errorf("read cache stats: %w", err)
	}
	return total, nil
}

func (s *CacheStats) add(o CacheStats) {
	s.Hits += o.Hits
	s.DiskHits += o.DiskHits
	s.Misses += o.Misses
	s.Errors += o.Errors
}

// CachedSymbols lists tickers with a persisted overview.
func (c *Cache) CachedSymbols() ([]string, error) {
	if c.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.holdDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func (c *Cache) fresh(at time.Time) bool {
	return c.ttl > 0 && c.now().Sub(at) < c.ttl
}

func (c *Cache) holdDir() string   { return filepath.Join(c.dir, "quote", "hold") }
func (c *Cache) statsPath() string { return filepath.Join(c.dir, "quote", "stats.json") }

func (c *Cache) symbolDir(symbol string) string {
	return filepath.Join(c.holdDir(), symbol)
}

func (c *Cache) historyPath(symbol, period, interval string) string {
	if c.dir == "" {
		return ""
	}
	return filepath.Join(c.symbolDir(symbol), fmt.Sprintf("history_%s_%s.json", period, interval))
}

func (c *Cache) readOverview(symbol string) *overview {
	if c.dir == "" {
		return nil
	}
	var ov overview
	if readJSON(filepath.Join(c.symbolDir(symbol), "overview.json"), &ov) != nil {
		return nil
	}
	return &ov
}

func (c *Cache) updateOverview(symbol string, apply func(*overview)) {
	if c.dir == "" {
		return
	}
	ov := c.readOverview(symbol)
	if ov == nil {
		ov = &overview{Symbol: symbol}
	}
	apply(ov)
	if err := writeJSON(filepath.Join(c.symbolDir(symbol), "overview.json"), ov); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("overview cache write failed")
	}
}

// writeJSON marshals v as indented JSON and writes to path.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
