package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/market"
	"folio/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Account Number,Account Name,Symbol,Description,Quantity,Last Price,Last Price Change,Current Value,Today's Gain/Loss Dollar,Total Gain/Loss Dollar,Cost Basis Total,Type\n"

func load(t *testing.T, body string) (model.Portfolio, LoadStats, error) {
	t.Helper()
	return Load(strings.NewReader(body), NewParser(market.Symbols{}))
}

func TestLoad_Scenarios(t *testing.T) {
	body := "\xef\xbb\xbf" + header +
		"Z1,Individual,AAPL,APPLE INC,10,$150.00,+$0.50,$1500.00,+$5.00,+$500.00,$1000.00,Cash\n" +
		"Z1,Individual,Pending Activity,,,,,$529535.51,,,,\n" +
		"Z1,Individual,SPAXX**,HELD IN MONEY MARKET,,,,$51151.25,,,,Cash\n" +
		"\n" +
		"\"The data and information in this spreadsheet is provided to you solely for your use\"\n"

	p, stats, err := load(t, body)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.PendingRows)
	assert.Equal(t, map[model.Kind]int{model.KindStock: 1, model.KindCash: 1}, stats.ByKind)
	assert.Equal(t, "529535.51", p.PendingActivityValue().String())

	positions := p.Positions()
	require.Len(t, positions, 2)

	aapl := positions[0].(model.StockPosition)
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, "10", aapl.Quantity.String())
	assert.Equal(t, "150", aapl.Price.String())
	assert.Equal(t, "1500", aapl.MarketValue().String())
	assert.Equal(t, "1000", aapl.CostBasis.String())

	spaxx := positions[1].(model.CashPosition)
	assert.Equal(t, "SPAXX", spaxx.Ticker)
	assert.Equal(t, "1", spaxx.Quantity.String())
	assert.Equal(t, "51151.25", spaxx.MarketValue().String())
}

func TestLoad_RowConservation(t *testing.T) {
	rows := []string{
		"Z1,I,MSFT,MICROSOFT CORP,5,$300.00,,$1500.00,,,,Margin",
		"Z1,I,-MSFT240621C400,MSFT JUN 21 2024 $400 CALL,1,$2.00,,$200.00,,,,Margin",
		"Z1,I,FCASH**,CASH,,,,$12.00,,,,Cash",
		"Z1,I,???,NOT A SECURITY,1,$1.00,,$1.00,,,,Margin",
		"Z1,I,,,,,,,,,,",
		"Z1,I,Pending Activity,,,,,$3.00,,,,",
		"Z1,I,Pending Activity,,,,,($1.00),,,,",
	}
	p, stats, err := load(t, header+strings.Join(rows, "\n"))
	require.NoError(t, err)
	assert.Equal(t, len(rows), stats.Rows)
	assert.Equal(t, 2, stats.PendingRows)
	assert.Equal(t, len(rows)-2, p.Len())
	assert.Equal(t, "2", p.PendingActivityValue().String())
	assert.Equal(t, 2, stats.ByKind[model.KindUnknown])
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := load(t, "")
	assert.ErrorIs(t, err, ErrEmptyExport)

	_, _, err = load(t, header)
	assert.ErrorIs(t, err, ErrEmptyExport)

	_, _, err = load(t, "Symbol,Description,Quantity\nAAPL,APPLE,1\n")
	var mc *MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []string{"Last Price", "Current Value", "Cost Basis Total"}, mc.Columns)

	_, _, err = load(t, header+"Z1,I,AAPL,APPLE INC,10,$abc,,$1500.00,,,,Cash\n")
	var ce *CurrencyError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "line 2: Last Price")
}

func TestLoad_ExtraAndReorderedColumns(t *testing.T) {
	body := "Current Value,Cost Basis Total,Symbol,Quantity,Last Price,Description,Percent Of Account\n" +
		"$200.00,,KO,4,$50.00,COCA-COLA CO,1.5%\n"
	p, _, err := load(t, body)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "200", p.Positions()[0].MarketValue().String())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Portfolio_Positions.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Z1,I,KO,COCA-COLA CO,4,$50.00,,$200.00,,,,Cash\r\n"), 0644))

	p, _, err := LoadFile(path, NewParser(market.Symbols{}))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), NewParser(market.Symbols{}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
