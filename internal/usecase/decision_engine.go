package usecase

import (
	"context"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	"TradeSuite/internal/services/aggregation"
	"TradeSuite/internal/services/risk"
	"TradeSuite/internal/services/signals"
)

// Decider is the decision engine as seen by its callers.
type Decider interface {
	// Lookback is the minimum history a request must carry.
	Lookback() int
	Decide(ctx context.Context, req models.SignalRequest) (*models.Decision, error)
}

// DecisionEngine chains source collection, aggregation and risk annotation.
// It holds no per-call state and is safe for concurrent use across symbols.
type DecisionEngine struct {
	collector  *signals.Collector
	aggregator *aggregation.Aggregator
	risk       *risk.Calculator
	metrics    domrepo.Metrics
	now        func() time.Time
}

func NewDecisionEngine(collector *signals.Collector, aggregator *aggregation.Aggregator, rc *risk.Calculator, metrics domrepo.Metrics) *DecisionEngine {
	return &DecisionEngine{
		collector:  collector,
		aggregator: aggregator,
		risk:       rc,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (e *DecisionEngine) Lookback() int { return e.collector.Lookback() }

// Collector exposes the configured sources for health reporting.
func (e *DecisionEngine) Collector() *signals.Collector { return e.collector }

// Decide never fails because of a source; only configuration problems are returned.
func (e *DecisionEngine) Decide(ctx context.Context, req models.SignalRequest) (*models.Decision, error) {
	start := time.Now()
	reports := e.collector.Collect(ctx, req)

	at := req.AsOf
	if at.IsZero() {
		at = e.now().UTC()
	}
	d, err := e.aggregator.Aggregate(req.Symbol, e.collector.Size(), reports, req.MinConf, at)
	if err != nil {
		return nil, err
	}
	e.risk.Annotate(d, req.Bars)

	if e.metrics != nil {
		e.metrics.RecordLatency("decide", time.Since(start))
	}
	return d, nil
}

var _ Decider = (*DecisionEngine)(nil)
