package risk

import (
	"fmt"

	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/services/features"
)

const (
	VolatilityATR      = "atr"
	VolatilityFallback = "fallback_pct"
)

type Config struct {
	ATRPeriod          int
	StopMultiplier     float64
	TakeProfitMultiple float64
	FallbackStopPct    float64
	RiskFraction       float64
	MaxExposure        float64
}

// Plan is a sized entry ready to be filled.
type Plan struct {
	Direction    models.Direction
	Entry        float64
	StopDistance float64
	TakeDistance float64
	StopPrice    float64
	TakePrice    float64
	Size         float64
}

type Calculator struct {
	cfg Config
}

func New(cfg Config) *Calculator {
	if cfg.MaxExposure <= 0 {
		cfg.MaxExposure = 1
	}
	return &Calculator{cfg: cfg}
}

func (c *Calculator) TakeProfitMultiple() float64 { return c.cfg.TakeProfitMultiple }

// StopDistance is ATR times the stop multiplier when the history is long enough,
// a fixed percentage of refPrice otherwise. The second result names the measure used.
func (c *Calculator) StopDistance(bars []models.Bar, refPrice float64) (float64, string) {
	if atr, ok := features.ATR(bars, c.cfg.ATRPeriod); ok && atr > 0 {
		return atr * c.cfg.StopMultiplier, VolatilityATR
	}
	return refPrice * c.cfg.FallbackStopPct, VolatilityFallback
}

// Annotate fills the risk fields of a decision from the history it was made on.
func (c *Calculator) Annotate(d *models.Decision, bars []models.Bar) {
	if len(bars) == 0 {
		return
	}
	ref := bars[len(bars)-1].Close
	dist, source := c.StopDistance(bars, ref)
	if ref > 0 {
		d.StopLossPct = dist / ref
	}
	d.TakeProfitMultiple = c.cfg.TakeProfitMultiple
	d.VolatilitySource = source
}

// Plan sizes a position risking RiskFraction of equity over stopDistance, capped so the
// notional never exceeds MaxExposure of equity.
func (c *Calculator) Plan(dir models.Direction, entry, stopDistance, equity float64) (Plan, error) {
	switch {
	case dir == models.Flat:
		return Plan{}, fmt.Errorf("%w: flat direction", models.ErrSizing)
	case stopDistance <= 0:
		return Plan{}, fmt.Errorf("%w: stop distance %v", models.ErrSizing, stopDistance)
	case equity <= 0:
		return Plan{}, fmt.Errorf("%w: equity %v", models.ErrSizing, equity)
	case entry <= 0:
		return Plan{}, fmt.Errorf("%w: entry price %v", models.ErrSizing, entry)
	}

	size := equity * c.cfg.RiskFraction / stopDistance
	if maxSize := equity * c.cfg.MaxExposure / entry; size > maxSize {
		size = maxSize
	}
	if size <= 0 {
		return Plan{}, fmt.Errorf("%w: size %v", models.ErrSizing, size)
	}

	take := stopDistance * c.cfg.TakeProfitMultiple
	sign := dir.Sign()
	return Plan{
		Direction:    dir,
		Entry:        entry,
		StopDistance: stopDistance,
		TakeDistance: take,
		StopPrice:    entry - sign*stopDistance,
		TakePrice:    entry + sign*take,
		Size:         size,
	}, nil
}
