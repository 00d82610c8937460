package service

import (
	"context"
	"time"

	"TradeSuite/internal/domain/models"
)

// SignalSource produces one directional vote per request.
// Errors should wrap models.ErrSourceUnavailable or models.ErrInvalidResponse.
type SignalSource interface {
	ID() string
	Signal(ctx context.Context, req models.SignalRequest) (models.SourceSignal, error)
}

// LookbackAware sources need at least Lookback() bars of history to vote.
type LookbackAware interface {
	Lookback() int
}

// TimeoutAware sources carry their own per-call deadline.
type TimeoutAware interface {
	Timeout() time.Duration
}

// HealthChecker sources can be probed without asking for a signal.
type HealthChecker interface {
	Health(ctx context.Context) error
}
