package usecase

import (
	"context"
	"fmt"
	"slices"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	"TradeSuite/internal/services/performance"
	"TradeSuite/internal/services/risk"
	applogger "TradeSuite/pkg/logger"
	"TradeSuite/pkg/util"
)

type SimulatorConfig struct {
	WindowSize     int
	StepSize       int
	InitialCapital float64
	CommissionRate float64
	MinHoldingDays int
	MinConfidence  float64
	PeriodsPerYear float64
}

// Simulator replays the decision engine bar by bar over walk-forward windows.
// A Simulator holds only configuration; every Run owns its own state, so one
// Simulator can serve many symbols concurrently.
type Simulator struct {
	engine  Decider
	risk    *risk.Calculator
	cfg     SimulatorConfig
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewSimulator(engine Decider, rc *risk.Calculator, cfg SimulatorConfig, metrics domrepo.Metrics, l *applogger.Logger) *Simulator {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = 252
	}
	return &Simulator{engine: engine, risk: rc, cfg: cfg, metrics: metrics, logger: l}
}

// pendingEntry is a decision waiting for the next bar's open.
type pendingEntry struct {
	direction    models.Direction
	stopDistance float64
	confidence   float64
}

// run is the per-symbol state machine: Flat while pos is nil, InPosition otherwise.
type run struct {
	*Simulator
	symbol  string
	bars    []models.Bar
	equity  float64
	pos     *models.Position
	pending *pendingEntry
	result  *models.SymbolResult
	log     *applogger.Logger
}

// Run simulates one symbol. Bars are sorted ascending first; spacing may be irregular.
// Only configuration errors, too-short series and context cancellation between
// windows abort the run.
func (s *Simulator) Run(ctx context.Context, symbol string, bars []models.Bar) (*models.SymbolResult, error) {
	bars = slices.Clone(bars)
	slices.SortStableFunc(bars, func(a, b models.Bar) int { return a.Time.Compare(b.Time) })

	windows, err := Windows(len(bars), s.cfg.WindowSize, s.cfg.StepSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	r := &run{
		Simulator: s,
		symbol:    symbol,
		bars:      bars,
		equity:    s.cfg.InitialCapital,
		result: &models.SymbolResult{
			Symbol:  symbol,
			Bars:    len(bars),
			Windows: windows,
		},
		log: s.logger.With(applogger.String("symbol", symbol)),
	}

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: window %d: %w", symbol, w.Index, err)
		}
		if err := r.window(ctx, w); err != nil {
			return nil, fmt.Errorf("%s: window %d: %w", symbol, w.Index, err)
		}
	}

	r.result.Metrics = performance.Compute(s.cfg.InitialCapital, r.result.Equity, r.result.Trades, s.cfg.PeriodsPerYear)
	r.log.Info("walk-forward complete",
		applogger.Int("windows", len(windows)),
		applogger.Int("trades", len(r.result.Trades)),
		applogger.Int("skipped_bars", r.result.SkippedBars),
		applogger.Float64("total_return", r.result.Metrics.TotalReturn),
		applogger.Float64("sharpe", r.result.Metrics.Sharpe),
	)
	return r.result, nil
}

func (r *run) window(ctx context.Context, w models.Window) error {
	for i := w.TestStart; i < w.TestEnd; i++ {
		bar := r.bars[i]
		last := i == w.TestEnd-1

		if r.pending != nil {
			r.fill(bar, w)
		}

		closed := false
		if r.pos != nil {
			var err error
			if closed, err = r.manage(ctx, w, i); err != nil {
				return err
			}
		}

		if last && r.pos != nil {
			r.close(bar.Close, bar, models.ExitWindowEnd, w)
			closed = true
		}

		if r.pos == nil && !closed {
			d, err := r.decide(ctx, w, i)
			if err != nil {
				return err
			}
			if d != nil && d.Direction != models.Flat {
				if last {
					r.log.Debug("entry dropped at window end", applogger.Int("window", w.Index))
				} else {
					hist := r.bars[w.TrainStart : i+1]
					dist, _ := r.risk.StopDistance(hist, bar.Close)
					r.pending = &pendingEntry{direction: d.Direction, stopDistance: dist, confidence: d.Confidence}
				}
			}
		}

		r.result.Equity = append(r.result.Equity, models.EquityPoint{Time: bar.Time, Equity: r.equity})
	}
	r.pending = nil
	return nil
}

// fill opens the pending entry at the bar's open. Sizing failures drop it.
func (r *run) fill(bar models.Bar, w models.Window) {
	p := r.pending
	r.pending = nil

	plan, err := r.risk.Plan(p.direction, bar.Open, p.stopDistance, r.equity)
	if err != nil {
		r.log.Warn("entry skipped",
			applogger.Int("window", w.Index),
			applogger.Time("bar", bar.Time),
			applogger.Error(err),
		)
		if r.metrics != nil {
			r.metrics.RecordError("sizing")
		}
		return
	}

	r.pos = &models.Position{
		Symbol:     r.symbol,
		Direction:  p.direction,
		EntryPrice: plan.Entry,
		EntryTime:  bar.Time,
		Size:       plan.Size,
		StopPrice:  plan.StopPrice,
		TakePrice:  plan.TakePrice,
		Status:     models.PositionOpen,
		Confidence: p.confidence,
	}
}

// manage applies at most one exit to the open position: stop, then take, then reversal.
// Reversal is only considered once the holding period has elapsed.
func (r *run) manage(ctx context.Context, w models.Window, i int) (bool, error) {
	bar := r.bars[i]
	if price, reason, hit := stopOrTake(r.pos, bar); hit {
		r.close(price, bar, reason, w)
		return true, nil
	}

	if util.ElapsedDays(r.pos.EntryTime, bar.Time) < r.cfg.MinHoldingDays {
		return false, nil
	}
	d, err := r.decide(ctx, w, i)
	if err != nil {
		return false, err
	}
	if d != nil && d.Direction == r.pos.Direction.Opposite() && d.Direction != models.Flat {
		r.close(bar.Close, bar, models.ExitReversal, w)
		return true, nil
	}
	return false, nil
}

// stopOrTake checks intrabar triggers. A bar that opens beyond a level fills at the open.
func stopOrTake(p *models.Position, bar models.Bar) (float64, models.ExitReason, bool) {
	if p.Direction == models.Long {
		switch {
		case bar.Open <= p.StopPrice:
			return bar.Open, models.ExitStop, true
		case bar.Low <= p.StopPrice:
			return p.StopPrice, models.ExitStop, true
		case bar.Open >= p.TakePrice:
			return bar.Open, models.ExitTake, true
		case bar.High >= p.TakePrice:
			return p.TakePrice, models.ExitTake, true
		}
		return 0, "", false
	}
	switch {
	case bar.Open >= p.StopPrice:
		return bar.Open, models.ExitStop, true
	case bar.High >= p.StopPrice:
		return p.StopPrice, models.ExitStop, true
	case bar.Open <= p.TakePrice:
		return bar.Open, models.ExitTake, true
	case bar.Low <= p.TakePrice:
		return p.TakePrice, models.ExitTake, true
	}
	return 0, "", false
}

func (r *run) close(price float64, bar models.Bar, reason models.ExitReason, w models.Window) {
	p := *r.pos
	p.Status = models.PositionClosed

	commission := (p.EntryPrice + price) * p.Size * r.cfg.CommissionRate
	pnl := p.Direction.Sign()*(price-p.EntryPrice)*p.Size - commission
	var ret float64
	if notional := p.EntryPrice * p.Size; notional > 0 {
		ret = pnl / notional
	}

	r.result.Trades = append(r.result.Trades, models.Trade{
		Position:    p,
		ExitPrice:   price,
		ExitTime:    bar.Time,
		ExitReason:  reason,
		Commission:  commission,
		PnL:         pnl,
		ReturnPct:   ret,
		HoldingDays: util.ElapsedDays(p.EntryTime, bar.Time),
		Window:      w.Index,
	})
	r.equity += pnl
	r.pos = nil

	if r.metrics != nil {
		r.metrics.RecordTrade(string(reason))
	}
}

// decide asks the engine about bar i using history from the window's train start.
// A nil decision means the bar was skipped for lack of history.
func (r *run) decide(ctx context.Context, w models.Window, i int) (*models.Decision, error) {
	hist := r.bars[w.TrainStart : i+1]
	if len(hist) < r.engine.Lookback() {
		r.result.SkippedBars++
		return nil, nil
	}

	d, err := r.engine.Decide(ctx, models.SignalRequest{
		Symbol:  r.symbol,
		MinConf: r.cfg.MinConfidence,
		AsOf:    r.bars[i].Time,
		Bars:    hist,
	})
	if err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.RecordDecision("backtest", string(d.Direction))
	}
	return d, nil
}
