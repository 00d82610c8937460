package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"
)

const insertChunk = 2000

// ClickHouseSink stores backtest runs in the backtest_* tables of database.
type ClickHouseSink struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewClickHouseSink(db *sql.DB, database string, l *applogger.Logger) *ClickHouseSink {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSink{db: db, database: database, l: l}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

// Schema returns the idempotent DDL for the sink tables, including the daily bar table
// read by CHPriceStore.
func (s *ClickHouseSink) Schema(barsTable string) []string {
	db := s.database
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String), date DateTime,
            open Float64, high Float64, low Float64, close Float64, volume Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, date)`, barsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_runs (
            run_id String, run_ts DateTime, symbols_tested UInt32, symbols_succeeded UInt32,
            window_size UInt32, step_size UInt32, initial_capital Float64, commission_rate Float64,
            risk_fraction Float64, min_confidence Float64, min_holding_days UInt32,
            average_return Float64, average_sharpe Float64
        ) ENGINE = MergeTree ORDER BY (run_ts, run_id)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_leaderboard (
            run_id String, rank UInt32, symbol LowCardinality(String), total_return Float64,
            sharpe Float64, max_drawdown Float64, win_rate Float64,
            profit_factor Nullable(Float64), trade_count UInt32
        ) ENGINE = MergeTree ORDER BY (run_id, rank)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_trades (
            run_id String, symbol LowCardinality(String), window_index UInt32, direction LowCardinality(String),
            entry_time DateTime, entry_price Float64, exit_time DateTime, exit_price Float64,
            exit_reason LowCardinality(String), size Float64, stop_price Float64, take_price Float64,
            commission Float64, pnl Float64, return_pct Float64, holding_days UInt32, confidence Float64
        ) ENGINE = MergeTree ORDER BY (run_id, symbol, entry_time)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_equity (
            run_id String, symbol LowCardinality(String), ts DateTime, equity Float64
        ) ENGINE = MergeTree ORDER BY (run_id, symbol, ts)`, db),
	}
}

func (s *ClickHouseSink) WriteReport(ctx context.Context, report *models.BacktestReport) error {
	start := time.Now()
	sum := report.Summary
	runID := sum.RunID

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s.backtest_runs (run_id, run_ts, symbols_tested, symbols_succeeded, window_size, step_size, initial_capital, commission_rate, risk_fraction, min_confidence, min_holding_days, average_return, average_sharpe) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.database),
		runID, sum.RunTimestamp, uint32(sum.SymbolsTested), uint32(sum.SymbolsSucceeded),
		uint32(sum.WindowSize), uint32(sum.StepSize), sum.InitialCapital, sum.CommissionRate,
		sum.RiskFraction, sum.MinConfidence, uint32(sum.MinHoldingDays), sum.AverageReturn, sum.AverageSharpe,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	board := make([][]interface{}, 0, len(report.Leaderboard))
	for i, e := range report.Leaderboard {
		board = append(board, []interface{}{runID, uint32(i + 1), e.Symbol, e.TotalReturn, e.Sharpe, e.MaxDrawdown, e.WinRate, e.ProfitFactor, uint32(e.TradeCount)})
	}
	if err := s.insert(ctx, "backtest_leaderboard", "run_id, rank, symbol, total_return, sharpe, max_drawdown, win_rate, profit_factor, trade_count", board); err != nil {
		return err
	}

	var trades, equity [][]interface{}
	for _, res := range report.Results {
		for _, t := range res.Trades {
			p := t.Position
			trades = append(trades, []interface{}{
				runID, p.Symbol, uint32(t.Window), string(p.Direction), p.EntryTime, p.EntryPrice,
				t.ExitTime, t.ExitPrice, string(t.ExitReason), p.Size, p.StopPrice, p.TakePrice,
				t.Commission, t.PnL, t.ReturnPct, uint32(t.HoldingDays), p.Confidence,
			})
		}
		for _, e := range res.Equity {
			equity = append(equity, []interface{}{runID, res.Symbol, e.Time, e.Equity})
		}
	}
	if err := s.insert(ctx, "backtest_trades", "run_id, symbol, window_index, direction, entry_time, entry_price, exit_time, exit_price, exit_reason, size, stop_price, take_price, commission, pnl, return_pct, holding_days, confidence", trades); err != nil {
		return err
	}
	if err := s.insert(ctx, "backtest_equity", "run_id, symbol, ts, equity", equity); err != nil {
		return err
	}

	s.l.Info("clickhouse backtest stored",
		applogger.String("run_id", runID),
		applogger.Int("trades", len(trades)),
		applogger.Int("equity_points", len(equity)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// insert writes rows with multi-row VALUES statements, insertChunk rows per round-trip.
func (s *ClickHouseSink) insert(ctx context.Context, table, columns string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(rows[0])), ", ") + ")"

	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*len(rows[0]))
		for _, r := range rows[start:end] {
			values = append(values, placeholder)
			args = append(args, r...)
		}
		q := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES %s", s.database, table, columns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

var _ domrepo.ResultSink = (*ClickHouseSink)(nil)
