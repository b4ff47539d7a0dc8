// Package display renders portfolio results as terminal tables.
package display

import (
	"fmt"
	"io"
	"strings"

	"folio/internal/market"
	"folio/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// Theme is the small palette used for tables.
type Theme struct {
	Border  lipgloss.Color
	Header  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
}

var DefaultTheme = Theme{
	Border:  lipgloss.Color("#4D4C57"),
	Header:  lipgloss.Color("#6B50FF"),
	Muted:   lipgloss.Color("#858392"),
	Success: lipgloss.Color("#00FFB2"),
	Error:   lipgloss.Color("#E94090"),
	Warning: lipgloss.Color("#FFD300"),
}

// Renderer writes tables to one output. Colors are dropped automatically
// when the output is not a terminal.
type Renderer struct {
	w     io.Writer
	r     *lipgloss.Renderer
	theme Theme
}

func New(w io.Writer) *Renderer {
	return &Renderer{w: w, r: lipgloss.NewRenderer(w), theme: DefaultTheme}
}

func (r *Renderer) table(headers []string, rows [][]string, numeric map[int]bool) *table.Table {
	header := r.r.NewStyle().Bold(true).Foreground(r.theme.Header).Padding(0, 1)
	cell := r.r.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.r.NewStyle().Foreground(r.theme.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if numeric[col] {
				return cell.Align(lipgloss.Right)
			}
			return cell
		})
}

func (r *Renderer) title(s string) {
	fmt.Fprintln(r.w, r.r.NewStyle().Bold(true).Render(s))
}

func (r *Renderer) signed(d decimal.Decimal) string {
	s := Money(d)
	switch {
	case d.IsNegative():
		return r.r.NewStyle().Foreground(r.theme.Error).Render(s)
	case d.IsPositive():
		return r.r.NewStyle().Foreground(r.theme.Success).Render(s)
	}
	return s
}

// Summary renders portfolio totals and the excluded-position notice.
func (r *Renderer) Summary(s model.PortfolioSummary) {
	r.title("Portfolio Summary")
	rows := [][]string{
		{"Total value", Money(s.TotalValue)},
		{"Stocks", Money(s.StockValue)},
		{"Options", Money(s.OptionValue)},
		{"Cash", Money(s.CashValue)},
		{"Unknown", Money(s.UnknownValue)},
		{"Pending activity", Money(s.PendingActivityValue)},
		{"Net market exposure", r.signed(s.NetMarketExposure)},
		{"Net exposure", Percent(s.NetExposurePct)},
		{"Portfolio beta", Beta(s.PortfolioBeta)},
		{"Beta-adjusted exposure", r.signed(s.BetaAdjustedExposure)},
	}
	fmt.Fprintln(r.w, r.table([]string{"Metric", "Value"}, rows, map[int]bool{1: true}).Render())
	r.Excluded(s.Excluded)
}

// Excluded lists positions whose exposure could not be computed.
func (r *Renderer) Excluded(ex []model.ExcludedPosition) {
	if len(ex) == 0 {
		return
	}
	warn := r.r.NewStyle().Foreground(r.theme.Warning)
	fmt.Fprintln(r.w, warn.Render(fmt.Sprintf("%d position(s) excluded from exposure:", len(ex))))
	for _, e := range ex {
		fmt.Fprintf(r.w, "  %s (%s): %s\n", e.Ticker, e.Kind, e.Reason)
	}
}

// Positions renders every classified position in load order.
func (r *Renderer) Positions(p model.Portfolio) {
	r.title(fmt.Sprintf("Positions (%d)", p.Len()))
	var rows [][]string
	for _, pos := range p.Positions() {
		h := pos.Base()
		detail := ""
		switch v := pos.(type) {
		case model.OptionPosition:
			detail = fmt.Sprintf("%s %s %s %s", v.Underlying, v.Expiry.Format("2006-01-02"), v.Strike.String(), v.OptionType)
		case model.UnknownPosition:
			detail = v.OriginalDescription
		default:
			detail = h.Description
		}
		cost := ""
		if h.CostBasis != nil {
			cost = Money(*h.CostBasis)
		}
		rows = append(rows, []string{
			h.Ticker,
			string(pos.Kind()),
			truncate(detail, 40),
			h.Quantity.String(),
			Money(h.Price),
			Money(pos.MarketValue()),
			cost,
		})
	}
	fmt.Fprintln(r.w, r.table(
		[]string{"Ticker", "Kind", "Detail", "Qty", "Price", "Value", "Cost Basis"},
		rows, map[int]bool{3: true, 4: true, 5: true, 6: true},
	).Render())
	if !p.PendingActivityValue().IsZero() {
		fmt.Fprintf(r.w, "Pending activity: %s\n", Money(p.PendingActivityValue()))
	}
}

// Exposures renders per-position exposure and the long/short totals.
func (r *Renderer) Exposures(b model.ExposureBreakdown) {
	r.title("Exposures")
	var rows [][]string
	for _, e := range b.Positions {
		rows = append(rows, []string{
			e.Ticker,
			e.Underlying,
			string(e.Kind),
			Delta(e.Delta),
			r.signed(e.Exposure),
			fmt.Sprintf("%.2f", e.Beta),
			r.signed(e.BetaAdjusted),
		})
	}
	fmt.Fprintln(r.w, r.table(
		[]string{"Position", "Underlying", "Kind", "Delta", "Exposure", "Beta", "Beta-Adj"},
		rows, map[int]bool{3: true, 4: true, 5: true, 6: true},
	).Render())

	totals := [][]string{
		{"Long stock", Money(b.LongStockExposure)},
		{"Short stock", Money(b.ShortStockExposure)},
		{"Long options", Money(b.LongOptionExposure)},
		{"Short options", Money(b.ShortOptionExposure)},
		{"Net market", r.signed(b.NetMarketExposure)},
		{"Beta-adjusted", r.signed(b.BetaAdjustedExposure)},
	}
	fmt.Fprintln(r.w, r.table([]string{"Exposure", "Amount"}, totals, map[int]bool{1: true}).Render())
	r.Excluded(b.Excluded)
}

// Groups renders the by-underlying view.
func (r *Renderer) Groups(groups []model.TickerGroup) {
	r.title("By Ticker")
	var rows [][]string
	for _, g := range groups {
		rows = append(rows, []string{
			g.Ticker,
			fmt.Sprintf("%d", len(g.Stocks)),
			fmt.Sprintf("%d", len(g.Options)),
			Money(g.MarketValue),
			r.signed(g.NetExposure),
			fmt.Sprintf("%.2f", g.Beta),
			r.signed(g.BetaAdjustedExposure),
		})
	}
	fmt.Fprintln(r.w, r.table(
		[]string{"Ticker", "Stocks", "Options", "Value", "Net Exposure", "Beta", "Beta-Adj"},
		rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true},
	).Render())
}

// Simulation renders a what-if sweep.
func (r *Renderer) Simulation(points []model.SimulationPoint) {
	r.title("Market Move Simulation")
	var rows [][]string
	for _, p := range points {
		rows = append(rows, []string{
			fmt.Sprintf("%+.1f%%", p.Move*100),
			Money(p.Value),
			r.signed(p.PnL),
			r.signed(p.NetMarketExposure),
		})
	}
	fmt.Fprintln(r.w, r.table(
		[]string{"Move", "Value", "P&L", "Net Exposure"},
		rows, map[int]bool{0: true, 1: true, 2: true, 3: true},
	).Render())
}

// CacheStats renders market-data cache counters and cached symbols.
func (r *Renderer) CacheStats(dir string, s market.CacheStats, symbols []string) {
	r.title("Market Data Cache")
	rows := [][]string{
		{"Directory", dir},
		{"Symbols", fmt.Sprintf("%d", len(symbols))},
		{"Hits", fmt.Sprintf("%d", s.Hits)},
		{"Disk hits", fmt.Sprintf("%d", s.DiskHits)},
		{"Misses", fmt.Sprintf("%d", s.Misses)},
		{"Errors", fmt.Sprintf("%d", s.Errors)},
	}
	fmt.Fprintln(r.w, r.table([]string{"Cache", ""}, rows, nil).Render())
	if len(symbols) > 0 {
		fmt.Fprintln(r.w, r.r.NewStyle().Foreground(r.theme.Muted).Render(strings.Join(symbols, " ")))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
