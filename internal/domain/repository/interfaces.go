package repository

import (
	"context"
	"time"

	"TradeSuite/internal/domain/models"
)

// PriceProvider returns bars ascending by time for [start, end].
type PriceProvider interface {
	GetPrices(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}

// DecisionPublisher emits live decisions to downstream consumers.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, d *models.Decision) error
}

// ResultSink persists a finished backtest run.
type ResultSink interface {
	Name() string
	WriteReport(ctx context.Context, report *models.BacktestReport) error
}

type Metrics interface {
	RecordSourceCall(source, status string, latency time.Duration)
	RecordDecision(origin, direction string)
	RecordTrade(exitReason string)
	RecordSymbolRun(result string)
	RecordError(kind string)
	RecordLatency(op string, d time.Duration)
}
