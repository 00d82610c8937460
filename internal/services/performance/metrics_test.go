package performance

import (
	"math"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trades(pnls ...float64) []models.Trade {
	out := make([]models.Trade, len(pnls))
	for i, p := range pnls {
		out[i] = models.Trade{PnL: p}
	}
	return out
}

func curve(values ...float64) []models.EquityPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.EquityPoint, len(values))
	for i, v := range values {
		out[i] = models.EquityPoint{Time: start.AddDate(0, 0, i), Equity: v}
	}
	return out
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 20.0/110.0, MaxDrawdown([]float64{100, 110, 90, 95}), 1e-9)
	assert.Zero(t, MaxDrawdown([]float64{100, 101, 102}))
	assert.Zero(t, MaxDrawdown(nil))
}

func TestProfitFactor(t *testing.T) {
	m := Compute(100, curve(110, 115, 112), trades(10, 5, -3), 252)
	require.NotNil(t, m.ProfitFactor)
	assert.InDelta(t, 5.0, *m.ProfitFactor, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
	assert.Equal(t, 2, m.Wins)
	assert.Equal(t, 1, m.Losses)

	m = Compute(100, curve(110), trades(10), 252)
	assert.Nil(t, m.ProfitFactor)
	assert.False(t, math.IsInf(m.WinRate, 0))

	m = Compute(100, nil, nil, 252)
	require.NotNil(t, m.ProfitFactor)
	assert.Zero(t, *m.ProfitFactor)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.Sharpe)
}

func TestSharpe(t *testing.T) {
	assert.Zero(t, Sharpe([]float64{0.01}, 252))
	assert.Zero(t, Sharpe([]float64{0.01, 0.01, 0.01}, 252))

	r := []float64{0.01, -0.01, 0.02}
	mean := 0.02 / 3
	std := math.Sqrt(((0.01-mean)*(0.01-mean) + (-0.01-mean)*(-0.01-mean) + (0.02-mean)*(0.02-mean)) / 2)
	assert.InDelta(t, mean/std*math.Sqrt(252), Sharpe(r, 252), 1e-9)
}

func TestCompute_TotalReturn(t *testing.T) {
	m := Compute(100_000, curve(101_000, 99_000, 110_000), nil, 252)

	assert.InDelta(t, 0.1, m.TotalReturn, 1e-9)
	assert.InDelta(t, 110_000, m.FinalEquity, 1e-9)
	assert.InDelta(t, 2000.0/101_000, m.MaxDrawdown, 1e-9)
}
