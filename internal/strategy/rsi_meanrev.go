package strategy

import (
	"context"
	"fmt"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"
	"TradeSuite/internal/services/features"
)

// RSIMeanReversion fades stretched moves: oversold votes LONG, overbought votes SHORT.
type RSIMeanReversion struct {
	id         string
	period     int
	oversold   float64
	overbought float64
}

func NewRSIMeanReversion(id string, p Params) *RSIMeanReversion {
	return &RSIMeanReversion{
		id:         id,
		period:     p.int("period", 14),
		oversold:   p.float("oversold", 30),
		overbought: p.float("overbought", 70),
	}
}

func (s *RSIMeanReversion) ID() string { return s.id }

func (s *RSIMeanReversion) Lookback() int { return s.period + 1 }

func (s *RSIMeanReversion) Signal(_ context.Context, req models.SignalRequest) (models.SourceSignal, error) {
	if err := requireBars(s.id, req.Bars, s.Lookback()); err != nil {
		return models.SourceSignal{}, err
	}
	rsi, _ := features.RSI(models.Closes(req.Bars), s.period)
	reason := fmt.Sprintf("rsi%d %.1f", s.period, rsi)

	switch {
	case rsi < s.oversold:
		return vote(models.Long, 0.5+0.5*(s.oversold-rsi)/s.oversold, []string{reason, "oversold"}), nil
	case rsi > s.overbought:
		return vote(models.Short, 0.5+0.5*(rsi-s.overbought)/(100-s.overbought), []string{reason, "overbought"}), nil
	default:
		return vote(models.Flat, 0.5, []string{reason, "neutral"}), nil
	}
}

var (
	_ domsvc.SignalSource  = (*RSIMeanReversion)(nil)
	_ domsvc.LookbackAware = (*RSIMeanReversion)(nil)
)
