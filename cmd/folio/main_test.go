package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"folio/internal/account"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = "Account Number,Account Name,Symbol,Description,Quantity,Last Price,Last Price Change,Current Value,Today's Gain/Loss Dollar,Total Gain/Loss Dollar,Cost Basis Total,Type\n" +
	"Z1,Individual,AAPL,APPLE INC,10,$150.00,,$1500.00,,,$1000.00,Cash\n" +
	"Z1,Individual,SPAXX**,HELD IN MONEY MARKET,,,,$500.00,,,,Cash\n"

const quotes = `{"prices": {"AAPL": "150"}, "betas": {"AAPL": 1.2}}`

func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "export.csv")
	quotesPath := filepath.Join(dir, "quotes.json")
	require.NoError(t, os.WriteFile(csvPath, []byte(export), 0644))
	require.NoError(t, os.WriteFile(quotesPath, []byte(quotes), 0644))
	t.Setenv("FOLIO_CACHE_DIR", filepath.Join(dir, "cache"))
	return csvPath, quotesPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{}
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := execute(context.Background(), root, a)
	return out.String(), err
}

func TestSummaryJSON(t *testing.T) {
	csvPath, quotesPath := setup(t)

	out, err := run(t, "summary", csvPath, "--json",
		"--provider", "static", "--quotes", quotesPath, "--no-cache", "--log-level", "off")
	require.NoError(t, err)

	var r account.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 2, r.Positions)
	assert.Equal(t, "2000", r.Summary.TotalValue.String())
	assert.Equal(t, "1500", r.Summary.NetMarketExposure.String())
	assert.Equal(t, "1800", r.Summary.BetaAdjustedExposure.String())
	require.NotNil(t, r.Summary.PortfolioBeta)
	assert.InDelta(t, 1.2, *r.Summary.PortfolioBeta, 1e-9)
	require.Len(t, r.Groups, 1)
	assert.Equal(t, "AAPL", r.Groups[0].Ticker)
}

func TestSummaryWritesReport(t *testing.T) {
	csvPath, quotesPath := setup(t)
	reportPath := filepath.Join(t.TempDir(), "reports", "summary.json")

	out, err := run(t, "summary", csvPath, "-o", reportPath,
		"--provider", "static", "--quotes", quotesPath, "--log-level", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio Summary")
	assert.FileExists(t, reportPath)
}

func TestSimulateRejectsCrash(t *testing.T) {
	csvPath, quotesPath := setup(t)

	_, err := run(t, "simulate", csvPath, "--moves", "-1",
		"--provider", "static", "--quotes", quotesPath, "--no-cache", "--log-level", "off")
	assert.ErrorIs(t, err, account.ErrInvalidMove)
}

func TestUnknownProvider(t *testing.T) {
	csvPath, _ := setup(t)

	_, err := run(t, "positions", csvPath, "--provider", "bloomberg")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestCacheStatsAfterRun(t *testing.T) {
	csvPath, quotesPath := setup(t)

	_, err := run(t, "exposures", csvPath,
		"--provider", "static", "--quotes", quotesPath, "--log-level", "off")
	require.NoError(t, err)

	out, err := run(t, "cache", "stats", "--provider", "static", "--quotes", quotesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")

	_, err = run(t, "cache", "clear", "--provider", "static", "--quotes", quotesPath)
	require.NoError(t, err)
	out, err = run(t, "cache", "stats", "--provider", "static", "--quotes", quotesPath)
	require.NoError(t, err)
	assert.NotContains(t, out, "AAPL")
}

func TestCacheStatsCountLookups(t *testing.T) {
	csvPath, quotesPath := setup(t)

	for i := 0; i < 2; i++ {
		_, err := run(t, "exposures", csvPath,
			"--provider", "static", "--quotes", quotesPath, "--log-level", "off")
		require.NoError(t, err)
	}

	out, err := run(t, "cache", "stats", "--provider", "static", "--quotes", quotesPath)
	require.NoError(t, err)
	// one miss on the first run, one disk hit on the second
	assert.Regexp(t, `Misses\s*│\s*1\b`, out)
	assert.Regexp(t, `Disk hits\s*│\s*1\b`, out)
}

func TestFailedCommandStillReleasesSource(t *testing.T) {
	_, quotesPath := setup(t)
	cacheDir := os.Getenv("FOLIO_CACHE_DIR")

	_, err := run(t, "positions", filepath.Join(t.TempDir(), "missing.csv"),
		"--provider", "static", "--quotes", quotesPath, "--log-level", "off")
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(cacheDir, "quote", "stats.json"))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "folio dev")
}
