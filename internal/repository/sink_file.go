package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"
	"TradeSuite/pkg/util"

	"github.com/shopspring/decimal"
)

// FileSink writes CSV ledgers, equity curves, the leaderboard and a JSON run summary under dir.
type FileSink struct {
	dir string
	l   *applogger.Logger
}

func NewFileSink(dir string, l *applogger.Logger) *FileSink {
	if l == nil {
		l = applogger.Nop()
	}
	return &FileSink{dir: dir, l: l}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) WriteReport(_ context.Context, report *models.BacktestReport) error {
	wf := filepath.Join(s.dir, "walkforward")
	if err := os.MkdirAll(wf, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	ts := util.FileStamp(report.Summary.RunTimestamp)

	if err := writeCSV(filepath.Join(s.dir, "leaderboard.csv"), leaderboardRows(report.Leaderboard)); err != nil {
		return err
	}
	for _, res := range report.Results {
		if err := writeCSV(filepath.Join(wf, fmt.Sprintf("%s_trades_%s.csv", res.Symbol, ts)), tradeRows(res.Trades)); err != nil {
			return err
		}
		if err := writeCSV(filepath.Join(wf, fmt.Sprintf("%s_equity_%s.csv", res.Symbol, ts)), equityRows(res.Equity)); err != nil {
			return err
		}
	}

	summary, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	path := filepath.Join(wf, fmt.Sprintf("summary_%s.json", ts))
	if err := os.WriteFile(path, summary, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	s.l.Info("backtest artifacts written",
		applogger.String("dir", s.dir),
		applogger.Int("symbols", len(report.Results)),
	)
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func leaderboardRows(board []models.LeaderboardEntry) [][]string {
	rows := [][]string{{"rank", "symbol", "total_return", "sharpe", "max_drawdown", "win_rate", "profit_factor", "trade_count"}}
	for i, e := range board {
		pf := ""
		if e.ProfitFactor != nil {
			pf = fixed(*e.ProfitFactor, 4)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Symbol,
			fixed(e.TotalReturn, 6),
			fixed(e.Sharpe, 4),
			fixed(e.MaxDrawdown, 6),
			fixed(e.WinRate, 4),
			pf,
			strconv.Itoa(e.TradeCount),
		})
	}
	return rows
}

func tradeRows(trades []models.Trade) [][]string {
	rows := [][]string{{
		"window", "symbol", "direction", "entry_time", "entry_price", "exit_time", "exit_price",
		"exit_reason", "size", "stop_price", "take_price", "commission", "pnl", "return_pct",
		"holding_days", "confidence",
	}}
	for _, t := range trades {
		p := t.Position
		rows = append(rows, []string{
			strconv.Itoa(t.Window),
			p.Symbol,
			string(p.Direction),
			p.EntryTime.Format(time.RFC3339),
			fixed(p.EntryPrice, 4),
			t.ExitTime.Format(time.RFC3339),
			fixed(t.ExitPrice, 4),
			string(t.ExitReason),
			fixed(p.Size, 6),
			fixed(p.StopPrice, 4),
			fixed(p.TakePrice, 4),
			fixed(t.Commission, 4),
			fixed(t.PnL, 4),
			fixed(t.ReturnPct, 6),
			strconv.Itoa(t.HoldingDays),
			fixed(p.Confidence, 4),
		})
	}
	return rows
}

func equityRows(points []models.EquityPoint) [][]string {
	rows := [][]string{{"time", "equity"}}
	for _, p := range points {
		rows = append(rows, []string{p.Time.Format(time.RFC3339), fixed(p.Equity, 2)})
	}
	return rows
}

var _ domrepo.ResultSink = (*FileSink)(nil)
