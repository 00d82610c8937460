// Package strategy holds in-process reference strategies. They satisfy the same
// signal source contract as remote strategy services and read bars from the request.
package strategy

import (
	"fmt"
	"strings"

	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/services/features"
)

type Params map[string]float64

func (p Params) int(key string, def int) int {
	if v, ok := p[key]; ok && v > 0 {
		return int(v)
	}
	return def
}

func (p Params) float(key string, def float64) float64 {
	if v, ok := p[key]; ok && v > 0 {
		return v
	}
	return def
}

func requireBars(id string, bars []models.Bar, n int) error {
	if len(bars) < n {
		return fmt.Errorf("%s: %w: have %d bars, need %d", id, models.ErrInsufficientData, len(bars), n)
	}
	return nil
}

// vote assembles a signal, keeping confidence inside [0,1].
func vote(dir models.Direction, strength float64, reasons []string) models.SourceSignal {
	return models.SourceSignal{
		Signal:     dir,
		Confidence: features.Clamp(strength, 0, 1),
		Rationale:  strings.Join(reasons, "; "),
	}
}
