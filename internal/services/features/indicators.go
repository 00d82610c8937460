package features

import (
	"math"

	"TradeSuite/internal/domain/models"
)

// TrueRange of bar i against the previous close. Bar 0 uses high-low.
func TrueRange(bars []models.Bar, i int) float64 {
	hl := bars[i].High - bars[i].Low
	if i == 0 {
		return hl
	}
	prev := bars[i-1].Close
	return math.Max(hl, math.Max(math.Abs(bars[i].High-prev), math.Abs(bars[i].Low-prev)))
}

// ATR is the simple mean of the last period true ranges. It needs period+1 bars
// so every range has a previous close; ok is false otherwise.
func ATR(bars []models.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += TrueRange(bars, i)
	}
	return sum / float64(period), true
}

// SMA of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// RSI over the last period close-to-close changes, using simple averages of gains and losses.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		if gain == 0 {
			return 50, true
		}
		return 100, true
	}
	rs := gain / loss
	return 100 - 100/(1+rs), true
}

// Donchian returns the highest high and lowest low of the period bars before the last one,
// so the last bar can be tested for a breakout against it.
func Donchian(bars []models.Bar, period int) (upper, lower float64, ok bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, 0, false
	}
	window := bars[len(bars)-period-1 : len(bars)-1]
	upper, lower = window[0].High, window[0].Low
	for _, b := range window[1:] {
		upper = math.Max(upper, b.High)
		lower = math.Min(lower, b.Low)
	}
	return upper, lower, true
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
