package strategy

import (
	"context"
	"fmt"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"
	"TradeSuite/internal/services/features"
)

// SMATrend follows a fast/slow moving average cross, confirmed by price on the fast side.
type SMATrend struct {
	id   string
	fast int
	slow int
}

func NewSMATrend(id string, p Params) *SMATrend {
	s := &SMATrend{id: id, fast: p.int("fast", 20), slow: p.int("slow", 50)}
	if s.fast >= s.slow {
		s.fast, s.slow = s.slow, s.fast
	}
	return s
}

func (s *SMATrend) ID() string { return s.id }

func (s *SMATrend) Lookback() int { return s.slow }

func (s *SMATrend) Signal(_ context.Context, req models.SignalRequest) (models.SourceSignal, error) {
	if err := requireBars(s.id, req.Bars, s.Lookback()); err != nil {
		return models.SourceSignal{}, err
	}
	closes := models.Closes(req.Bars)
	price := closes[len(closes)-1]
	fast, _ := features.SMA(closes, s.fast)
	slow, _ := features.SMA(closes, s.slow)

	spread := (fast - slow) / slow
	reason := fmt.Sprintf("sma%d %.2f vs sma%d %.2f", s.fast, fast, s.slow, slow)

	switch {
	case fast > slow && price > fast:
		return vote(models.Long, 0.5+spread*10, []string{reason, "uptrend"}), nil
	case fast < slow && price < fast:
		return vote(models.Short, 0.5-spread*10, []string{reason, "downtrend"}), nil
	default:
		return vote(models.Flat, 0.5, []string{reason, "no confirmed trend"}), nil
	}
}

var (
	_ domsvc.SignalSource  = (*SMATrend)(nil)
	_ domsvc.LookbackAware = (*SMATrend)(nil)
)
