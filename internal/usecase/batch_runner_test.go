package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// symbolPrices serves a trending series per symbol; unknown symbols fail.
type symbolPrices struct {
	series map[string][]models.Bar
}

func (p symbolPrices) GetPrices(_ context.Context, symbol string, _, _ time.Time) ([]models.Bar, error) {
	bars, ok := p.series[symbol]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return bars, nil
}

type memSink struct {
	mu      sync.Mutex
	reports []*models.BacktestReport
	err     error
}

func (s *memSink) Name() string { return "mem" }

func (s *memSink) WriteReport(_ context.Context, r *models.BacktestReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return s.err
}

func trendBars(n int, step float64) []models.Bar {
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = models.Bar{Time: day0.AddDate(0, 0, i), Open: price, High: price + 0.2, Low: price - 0.2, Close: price + step}
		price += step
	}
	return bars
}

func alwaysLong() *scriptedDecider {
	return &scriptedDecider{vote: func(models.SignalRequest) models.Direction { return models.Long }}
}

func newBatch(sinks ...*memSink) *BatchRunner {
	sim := testSimulator(alwaysLong(), 5)
	prices := symbolPrices{series: map[string][]models.Bar{
		"UP":   trendBars(60, 0.1),
		"DOWN": trendBars(60, -0.1),
		"TINY": trendBars(5, 0.1),
	}}
	b := NewBatchRunner(sim, prices, nil, nil, nil, BatchConfig{
		Symbols:      []string{"down", "UP", "TINY", "NOPE"},
		Start:        day0,
		End:          day0.AddDate(0, 0, 60),
		Concurrency:  2,
		RiskFraction: 0.02,
	})
	for _, s := range sinks {
		b.sinks = append(b.sinks, s)
	}
	b.newID = func() string { return "run-1" }
	return b
}

func TestBatchRunner_IsolatesFailures(t *testing.T) {
	sink := &memSink{}
	report, err := newBatch(sink).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, sink.reports, 1)
	assert.Same(t, report, sink.reports[0])

	s := report.Summary
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 4, s.SymbolsTested)
	assert.Equal(t, 2, s.SymbolsSucceeded)
	assert.Equal(t, 30, s.WindowSize)
	assert.Equal(t, 20, s.StepSize)
	assert.InDelta(t, 0.02, s.RiskFraction, 1e-9)
	require.Len(t, s.Failures, 2)
	assert.Equal(t, "TINY", s.Failures[0].Symbol)
	assert.Contains(t, s.Failures[0].Error, models.ErrInsufficientData.Error())
	assert.Equal(t, "NOPE", s.Failures[1].Symbol)

	require.Len(t, report.Leaderboard, 2)
	assert.GreaterOrEqual(t, report.Leaderboard[0].Sharpe, report.Leaderboard[1].Sharpe)
	assert.Equal(t, "UP", report.Leaderboard[0].Symbol)
	assert.Len(t, report.Results, 2)
}

func TestBatchRunner_SinkErrorsReturnedWithReport(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	report, err := newBatch(sink).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mem sink")
	assert.NotNil(t, report)
}

func TestBatchRunner_ValidateBeforeWork(t *testing.T) {
	b := newBatch()
	b.cfg.Symbols = nil
	_, err := b.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrConfiguration)

	b = newBatch()
	b.sim.cfg.StepSize = 50
	_, err = b.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrConfiguration)

	b = newBatch()
	b.cfg.End = day0.AddDate(0, 0, -1)
	assert.ErrorIs(t, b.Validate(), models.ErrConfiguration)
}
