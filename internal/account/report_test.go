package account

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"folio/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	p := BuildPortfolio([]model.Position{
		stock("AAPL", "10", "150"),
		cash("SPAXX", "100"),
	}, decimal.Zero)
	s, b, err := newAggregator(fixture()).Analyze(context.Background(), p)
	require.NoError(t, err)

	r := NewReport("positions.csv", p, s, b, calcDay)
	assert.Equal(t, "2024-06-21T15:00:00Z", r.GeneratedAt)
	assert.Equal(t, 2, r.Positions)
	require.Len(t, r.Groups, 1)

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "1600", summary["total_value"])
	assert.InDelta(t, 1.2, summary["portfolio_beta"], 1e-12)

	path := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteReport(path, r))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, buf.String(), string(data))
}
