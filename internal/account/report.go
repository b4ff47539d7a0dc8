package account

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"folio/internal/model"
)

// Report bundles everything derived from one export for JSON consumers.
type Report struct {
	Source      string                  `json:"source"`
	GeneratedAt string                  `json:"generated_at"`
	Positions   int                     `json:"positions"`
	Summary     model.PortfolioSummary  `json:"summary"`
	Exposures   model.ExposureBreakdown `json:"exposures"`
	Groups      []model.TickerGroup     `json:"groups"`
}

// NewReport groups the breakdown by ticker and stamps the report.
func NewReport(source string, p model.Portfolio, s model.PortfolioSummary, b model.ExposureBreakdown, now time.Time) Report {
	return Report{
		Source:      source,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Positions:   p.Len(),
		Summary:     s,
		Exposures:   b,
		Groups:      GroupByTicker(p, b),
	}
}

// Encode writes the report as indented JSON.
func (r Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteReport writes the report to path, creating parent directories.
func WriteReport(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
