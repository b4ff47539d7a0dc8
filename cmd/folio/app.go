package main

import (
	"fmt"

	"folio/internal/config"
	"folio/internal/credential"
	"folio/internal/ledger"
	"folio/internal/logger"
	"folio/internal/market"
	"folio/internal/model"
	"folio/internal/options"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type flags struct {
	provider   string
	quotes     string
	cacheDir   string
	noCache    bool
	logLevel   string
	pretty     bool
	credential string
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	flags  flags
	cfg    *config.Config
	log    zerolog.Logger
	source market.Source
	cache  *market.Cache
	engine *options.Engine
	closer func() error
}

func (a *app) init(cmd *cobra.Command) error {
	cfg := config.FromEnv()

	pf := cmd.Flags()
	if pf.Changed("provider") {
		cfg.Provider = a.flags.provider
	}
	if pf.Changed("quotes") {
		cfg.QuotesFile = a.flags.quotes
	}
	if pf.Changed("cache-dir") {
		cfg.CacheDir = a.flags.cacheDir
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if pf.Changed("credential") {
		cfg.Credential = a.flags.credential
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: a.flags.pretty})
	logger.SetGlobalLogger(a.log)
	a.engine = options.NewEngine(options.WithRiskFreeRate(cfg.RiskFreeRate))
	return nil
}

// marketSource builds the configured provider, wrapped in the cache unless
// --no-cache is set. It is built lazily so commands that need no market data
// never open a network connection.
func (a *app) marketSource() (market.Source, error) {
	if a.source != nil {
		return a.source, nil
	}

	est := market.DefaultBetaEstimator()
	est.Benchmark = a.cfg.Benchmark

	var src market.Source
	switch a.cfg.Provider {
	case config.ProviderStatic:
		s, err := market.LoadStatic(a.cfg.QuotesFile)
		if err != nil {
			return nil, err
		}
		s.Estimator = &est
		src = s
	case config.ProviderLongbridge:
		lcfg, err := credential.Load(a.cfg.Credential)
		if err != nil {
			return nil, fmt.Errorf("longbridge credential: %w", err)
		}
		lb, err := market.NewLongbridgeSource(lcfg, est, a.log)
		if err != nil {
			return nil, err
		}
		a.closer = lb.Close
		src = lb
	default:
		src = market.NewYahooSource(est, a.log)
	}

	if !a.flags.noCache {
		a.cache = a.newCache(src)
		src = a.cache
	}
	a.source = src
	a.log.Debug().Str("provider", a.cfg.Provider).Bool("cache", a.cache != nil).Msg("market source ready")
	return src, nil
}

func (a *app) newCache(src market.Source) *market.Cache {
	return market.NewCache(src,
		market.WithCacheDir(a.cfg.CacheDir),
		market.WithTTL(a.cfg.CacheTTL),
		market.WithCacheLogger(a.log),
	)
}

// load parses an export with the configured market source as classifier.
func (a *app) load(path string) (model.Portfolio, error) {
	src, err := a.marketSource()
	if err != nil {
		return model.Portfolio{}, err
	}
	p, stats, err := ledger.LoadFile(path, ledger.NewParser(src, ledger.WithLogger(a.log)))
	if err != nil {
		return model.Portfolio{}, err
	}
	a.log.Debug().Int("rows", stats.Rows).Interface("kinds", stats.ByKind).Msg("classified")
	return p, nil
}

func (a *app) close() {
	if a.cache != nil {
		s := a.cache.Stats()
		a.log.Debug().Int("hits", s.Hits).Int("disk_hits", s.DiskHits).Int("misses", s.Misses).
			Int("errors", s.Errors).Msg("market data cache")
		if err := a.cache.Persist(); err != nil {
			a.log.Warn().Err(err).Msg("persist cache stats")
		}
		a.cache = nil
	}
	if a.closer != nil {
		if err := a.closer(); err != nil {
			a.log.Warn().Err(err).Msg("close market source")
		}
		a.closer = nil
	}
}
