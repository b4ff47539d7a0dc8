package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"folio/internal/model"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// RequiredColumns must all be present in the export header.
var RequiredColumns = []string{
	"Symbol",
	"Description",
	"Quantity",
	"Last Price",
	"Current Value",
	"Cost Basis Total",
}

// ErrEmptyExport is returned for a file with a header and no data rows.
var ErrEmptyExport = errors.New("export contains no data rows")

// MissingColumnsError lists required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("export is missing required columns: %s", strings.Join(e.Columns, ", "))
}

// LoadStats describes how the export rows were consumed.
type LoadStats struct {
	Rows        int
	PendingRows int
	ByKind      map[model.Kind]int
}

// LoadFile reads a broker export from disk.
func LoadFile(path string, parser *Parser) (model.Portfolio, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Portfolio{}, LoadStats{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return Load(f, parser)
}

// Load parses every data row of the export. Rows that are not pending
// activity each become exactly one position.
func Load(r io.Reader, parser *Parser) (model.Portfolio, LoadStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Portfolio{}, LoadStats{}, fmt.Errorf("read export: %w", err)
	}
	body := trimExport(data)
	if body == "" {
		return model.Portfolio{}, LoadStats{}, fmt.Errorf("read export: %w", ErrEmptyExport)
	}
	if err := checkHeader(body); err != nil {
		return model.Portfolio{}, LoadStats{}, err
	}

	var rows []Row
	if err := gocsv.UnmarshalCSV(newCSVReader(body), &rows); err != nil {
		return model.Portfolio{}, LoadStats{}, fmt.Errorf("decode export: %w", err)
	}
	if len(rows) == 0 {
		return model.Portfolio{}, LoadStats{}, ErrEmptyExport
	}

	stats := LoadStats{Rows: len(rows), ByKind: map[model.Kind]int{}}
	positions := make([]model.Position, 0, len(rows))
	pending := decimal.Zero
	for i, row := range rows {
		row.Line = i + 2
		parsed, err := parser.ParseRow(row)
		if err != nil {
			return model.Portfolio{}, LoadStats{}, err
		}
		if parsed.IsPending {
			pending = pending.Add(parsed.PendingActivity)
			stats.PendingRows++
			continue
		}
		positions = append(positions, parsed.Position)
		stats.ByKind[parsed.Position.Kind()]++
	}

	parser.log.Info().
		Int("rows", stats.Rows).
		Int("positions", len(positions)).
		Int("pending_rows", stats.PendingRows).
		Str("pending_value", pending.StringFixed(2)).
		Msg("export loaded")

	return model.NewPortfolio(positions, pending), stats, nil
}

// trimExport drops a UTF-8 BOM, leading blank lines and everything after
// the first blank line that follows the header (broker footers).
func trimExport(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var kept []string
	for _, line := range lines {
		if strings.TrimSpace(strings.Trim(line, ",")) == "" {
			if len(kept) == 0 {
				continue
			}
			break
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func checkHeader(body string) error {
	header, err := newCSVReader(body).Read()
	if err != nil {
		return fmt.Errorf("read export header: %w", err)
	}
	present := map[string]bool{}
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

func newCSVReader(body string) *csv.Reader {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}
