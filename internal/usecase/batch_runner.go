package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"

	"github.com/google/uuid"
)

type BatchConfig struct {
	Symbols     []string
	Start       time.Time
	End         time.Time
	Concurrency int
	// RiskFraction is reported in the run summary only; sizing reads it from the risk calculator.
	RiskFraction float64
}

// BatchRunner backtests many symbols concurrently. Symbols never share state; a failing
// symbol is reported and the rest of the batch continues.
type BatchRunner struct {
	sim     *Simulator
	prices  domrepo.PriceProvider
	sinks   []domrepo.ResultSink
	metrics domrepo.Metrics
	logger  *applogger.Logger
	cfg     BatchConfig
	now     func() time.Time
	newID   func() string
}

func NewBatchRunner(sim *Simulator, prices domrepo.PriceProvider, sinks []domrepo.ResultSink, metrics domrepo.Metrics, l *applogger.Logger, cfg BatchConfig) *BatchRunner {
	if l == nil {
		l = applogger.Nop()
	}
	return &BatchRunner{
		sim:     sim,
		prices:  prices,
		sinks:   sinks,
		metrics: metrics,
		logger:  l,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Validate rejects parameters that would fail every symbol, before any goroutine starts.
func (b *BatchRunner) Validate() error {
	if len(b.cfg.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols to backtest", models.ErrConfiguration)
	}
	sc := b.sim.cfg
	if _, err := Windows(sc.WindowSize, sc.WindowSize, sc.StepSize); err != nil {
		return err
	}
	if sc.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital %v", models.ErrConfiguration, sc.InitialCapital)
	}
	if sc.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate %v", models.ErrConfiguration, sc.CommissionRate)
	}
	if !b.cfg.End.IsZero() && b.cfg.End.Before(b.cfg.Start) {
		return fmt.Errorf("%w: end %s before start %s", models.ErrConfiguration, b.cfg.End.Format(time.DateOnly), b.cfg.Start.Format(time.DateOnly))
	}
	return nil
}

// Run executes the batch and hands the report to every sink. Sink failures are
// returned joined, together with the report.
func (b *BatchRunner) Run(ctx context.Context) (*models.BacktestReport, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	started := b.now()
	runID := b.newID()
	log := b.logger.With(applogger.String("run_id", runID))
	log.Info("backtest started",
		applogger.Strings("symbols", b.cfg.Symbols),
		applogger.Int("window_size", b.sim.cfg.WindowSize),
		applogger.Int("step_size", b.sim.cfg.StepSize),
	)

	results := make([]*models.SymbolResult, len(b.cfg.Symbols))
	failures := make([]error, len(b.cfg.Symbols))

	sem := make(chan struct{}, max(b.cfg.Concurrency, 1))
	var wg sync.WaitGroup
	for i, symbol := range b.cfg.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i], failures[i] = b.runSymbol(ctx, symbol)
			if failures[i] != nil {
				log.Error("symbol failed", applogger.String("symbol", symbol), applogger.Error(failures[i]))
			}
		}(i, strings.ToUpper(symbol))
	}
	wg.Wait()

	report := b.report(runID, started, results, failures)
	log.Info("backtest finished",
		applogger.Int("succeeded", report.Summary.SymbolsSucceeded),
		applogger.Int("tested", report.Summary.SymbolsTested),
		applogger.Float64("average_sharpe", report.Summary.AverageSharpe),
		applogger.Duration("duration", b.now().Sub(started)),
	)

	var sinkErrs []error
	for _, sink := range b.sinks {
		if err := sink.WriteReport(ctx, report); err != nil {
			log.Error("result sink failed", applogger.String("sink", sink.Name()), applogger.Error(err))
			sinkErrs = append(sinkErrs, fmt.Errorf("%s sink: %w", sink.Name(), err))
		}
	}
	return report, errors.Join(sinkErrs...)
}

func (b *BatchRunner) runSymbol(ctx context.Context, symbol string) (*models.SymbolResult, error) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.RecordLatency("backtest_symbol", time.Since(start))
		}
	}()

	end := b.cfg.End
	if end.IsZero() {
		end = b.now().UTC()
	}
	bars, err := b.prices.GetPrices(ctx, symbol, b.cfg.Start, end)
	if err != nil {
		b.record("failed")
		return nil, fmt.Errorf("%s: load prices: %w", symbol, err)
	}

	res, err := b.sim.Run(ctx, symbol, bars)
	if err != nil {
		b.record("failed")
		return nil, err
	}
	b.record("ok")
	return res, nil
}

func (b *BatchRunner) record(result string) {
	if b.metrics != nil {
		b.metrics.RecordSymbolRun(result)
	}
}

func (b *BatchRunner) report(runID string, started time.Time, results []*models.SymbolResult, failures []error) *models.BacktestReport {
	sc := b.sim.cfg
	summary := models.RunSummary{
		RunID:          runID,
		RunTimestamp:   started.UTC(),
		SymbolsTested:  len(b.cfg.Symbols),
		WindowSize:     sc.WindowSize,
		StepSize:       sc.StepSize,
		InitialCapital: sc.InitialCapital,
		CommissionRate: sc.CommissionRate,
		RiskFraction:   b.cfg.RiskFraction,
		MinConfidence:  sc.MinConfidence,
		MinHoldingDays: sc.MinHoldingDays,
		Duration:       b.now().Sub(started).Round(time.Millisecond).String(),
	}

	var ok []*models.SymbolResult
	for i, res := range results {
		if failures[i] != nil {
			summary.Failures = append(summary.Failures, models.SymbolFailure{
				Symbol: strings.ToUpper(b.cfg.Symbols[i]),
				Error:  failures[i].Error(),
			})
			continue
		}
		ok = append(ok, res)
		summary.Symbols = append(summary.Symbols, res.Symbol)
		summary.AverageReturn += res.Metrics.TotalReturn
		summary.AverageSharpe += res.Metrics.Sharpe
	}
	summary.SymbolsSucceeded = len(ok)
	if n := float64(len(ok)); n > 0 {
		summary.AverageReturn /= n
		summary.AverageSharpe /= n
	}

	board := make([]models.LeaderboardEntry, 0, len(ok))
	for _, res := range ok {
		board = append(board, models.NewLeaderboardEntry(res))
	}
	slices.SortStableFunc(board, func(a, b models.LeaderboardEntry) int {
		if c := cmp.Compare(b.Sharpe, a.Sharpe); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	return &models.BacktestReport{Summary: summary, Leaderboard: board, Results: ok}
}
