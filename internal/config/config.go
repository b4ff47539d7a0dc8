package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderYahoo      = "yahoo"
	ProviderLongbridge = "longbridge"
	ProviderStatic     = "static"
)

// Config holds application configuration
type Config struct {
	Provider     string
	CacheDir     string
	CacheTTL     time.Duration
	RiskFreeRate float64
	Benchmark    string
	LogLevel     string
	Credential   string
	QuotesFile   string
}

// Load reads configuration from environment variables, after applying a
// .env file in the working directory if one exists.
func Load() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads configuration without validating it, so callers can apply
// command-line overrides first.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Provider:     getEnv("FOLIO_PROVIDER", ProviderYahoo),
		CacheDir:     getEnv("FOLIO_CACHE_DIR", defaultCacheDir()),
		CacheTTL:     getEnvAsDuration("FOLIO_CACHE_TTL", 24*time.Hour),
		RiskFreeRate: getEnvAsFloat("FOLIO_RISK_FREE_RATE", 0.05),
		Benchmark:    getEnv("FOLIO_BENCHMARK", "SPY"),
		LogLevel:     getEnv("FOLIO_LOG_LEVEL", "info"),
		Credential:   getEnv("FOLIO_CREDENTIAL", "credential"),
		QuotesFile:   getEnv("FOLIO_QUOTES", ""),
	}
}

// Validate checks the provider selection and numeric ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderYahoo, ProviderLongbridge:
	case ProviderStatic:
		if c.QuotesFile == "" {
			return fmt.Errorf("FOLIO_QUOTES is required for the static provider")
		}
	default:
		return fmt.Errorf("unknown provider %q (want yahoo, longbridge or static)", c.Provider)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("FOLIO_CACHE_TTL must not be negative")
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("FOLIO_RISK_FREE_RATE must be between 0 and 1, got %v", c.RiskFreeRate)
	}
	if c.Benchmark == "" {
		return fmt.Errorf("FOLIO_BENCHMARK is required")
	}
	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "folio")
	}
	return ".folio-cache"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
