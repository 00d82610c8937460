package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"TradeSuite/internal/domain/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	headerCell = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	longStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	shortStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	flatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

func directionStyle(d models.Direction) lipgloss.Style {
	switch d {
	case models.Long:
		return longStyle
	case models.Short:
		return shortStyle
	default:
		return flatStyle
	}
}

// renderDecision prints the decision headline and one row per source.
func renderDecision(d *models.Decision) string {
	head := fmt.Sprintf("%s  %s  confidence %.2f  agreement %.2f  quorum %v",
		d.Symbol,
		directionStyle(d.Direction).Render(string(d.Direction)),
		d.Confidence, d.Agreement, d.QuorumMet)
	risk := mutedStyle.Render(fmt.Sprintf("stop %.2f%%  take %.2fx stop  (%s)",
		d.StopLossPct*100, d.TakeProfitMultiple, d.VolatilitySource))

	rows := [][]string{{"SOURCE", "STATUS", "SIGNAL", "CONF", "LATENCY", "RATIONALE"}}
	for _, c := range d.Components {
		signal, conf := "-", "-"
		if c.OK() {
			signal, conf = string(c.Signal), fmt.Sprintf("%.2f", c.Confidence)
		}
		rows = append(rows, []string{
			c.SourceID, string(c.Status), signal, conf,
			fmt.Sprintf("%dms", c.Latency.Milliseconds()), truncate(c.Rationale, 48),
		})
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Decision"), head, risk, "", renderTable(rows)))
}

// renderReport prints the run summary and the leaderboard.
func renderReport(r *models.BacktestReport) string {
	s := r.Summary
	head := fmt.Sprintf("run %s  %d/%d symbols  avg return %s  avg sharpe %.2f  took %s",
		s.RunID, s.SymbolsSucceeded, s.SymbolsTested, pct(s.AverageReturn), s.AverageSharpe, s.Duration)

	rows := [][]string{{"#", "SYMBOL", "RETURN", "SHARPE", "MAX DD", "WIN RATE", "PF", "TRADES"}}
	for i, e := range r.Leaderboard {
		pf := "inf"
		if e.ProfitFactor != nil {
			pf = decimal.NewFromFloat(*e.ProfitFactor).StringFixed(2)
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1), e.Symbol, pct(e.TotalReturn),
			decimal.NewFromFloat(e.Sharpe).StringFixed(2), pct(e.MaxDrawdown),
			pct(e.WinRate), pf, fmt.Sprint(e.TradeCount),
		})
	}

	parts := []string{titleStyle.Render("Walk-forward leaderboard"), head, "", renderTable(rows)}
	for _, f := range s.Failures {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%s failed: %s", f.Symbol, f.Error)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderTable pads every column to its widest cell. The first row is the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			st := lipgloss.NewStyle().Width(widths[i] + 2)
			if r == 0 {
				st = st.Inherit(headerCell)
			}
			cells[i] = st.Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func pct(x float64) string {
	return decimal.NewFromFloat(x*100).StringFixed(2) + "%"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
