package strategy

import (
	"context"
	"fmt"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"
	"TradeSuite/internal/services/features"
)

// Donchian is the turtle breakout: a close beyond the entry channel votes in the breakout
// direction unless it already sits beyond the opposite exit channel.
type Donchian struct {
	id          string
	entryPeriod int
	exitPeriod  int
	trendPeriod int
}

func NewDonchian(id string, p Params) *Donchian {
	return &Donchian{
		id:          id,
		entryPeriod: p.int("entry", 20),
		exitPeriod:  p.int("exit", 10),
		trendPeriod: p.int("trend", 50),
	}
}

func (s *Donchian) ID() string { return s.id }

func (s *Donchian) Lookback() int {
	return max(s.entryPeriod, s.exitPeriod, s.trendPeriod) + 1
}

func (s *Donchian) Signal(_ context.Context, req models.SignalRequest) (models.SourceSignal, error) {
	bars := req.Bars
	if err := requireBars(s.id, bars, s.Lookback()); err != nil {
		return models.SourceSignal{}, err
	}

	price := bars[len(bars)-1].Close
	upper, lower, _ := features.Donchian(bars, s.entryPeriod)
	exitUpper, exitLower, _ := features.Donchian(bars, s.exitPeriod)
	trend, _ := features.SMA(models.Closes(bars), s.trendPeriod)

	dir := models.Flat
	var reasons []string
	switch {
	case price > upper:
		dir = models.Long
		reasons = append(reasons, fmt.Sprintf("close broke above %d-bar high", s.entryPeriod))
	case price < lower:
		dir = models.Short
		reasons = append(reasons, fmt.Sprintf("close broke below %d-bar low", s.entryPeriod))
	default:
		reasons = append(reasons, "inside channel")
	}
	if dir == models.Long && price <= exitLower || dir == models.Short && price >= exitUpper {
		dir = models.Flat
		reasons = append(reasons, fmt.Sprintf("beyond %d-bar exit channel", s.exitPeriod))
	}

	strength := 0.5
	if dir != models.Flat {
		if width := (upper - lower) / price; width > 0.05 {
			strength += 0.2
			reasons = append(reasons, "wide channel")
		} else {
			strength -= 0.1
			reasons = append(reasons, "narrow channel")
		}
		if (dir == models.Long) == (price > trend) {
			strength += 0.2
			reasons = append(reasons, "trend confirms")
		} else {
			strength -= 0.1
			reasons = append(reasons, "trend conflicts")
		}
	}
	return vote(dir, strength, reasons), nil
}

var (
	_ domsvc.SignalSource  = (*Donchian)(nil)
	_ domsvc.LookbackAware = (*Donchian)(nil)
)
