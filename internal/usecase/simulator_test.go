package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/services/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDecider struct {
	lookback int
	vote     func(req models.SignalRequest) models.Direction

	mu       sync.Mutex
	requests []models.SignalRequest
}

func (d *scriptedDecider) Lookback() int { return d.lookback }

func (d *scriptedDecider) Decide(_ context.Context, req models.SignalRequest) (*models.Decision, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()
	return &models.Decision{Symbol: req.Symbol, Direction: d.vote(req), Confidence: 0.9, Timestamp: req.AsOf}, nil
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// quietBars never touch a 2.5% stop or take around 100.
func quietBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{Time: day0.AddDate(0, 0, i), Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	}
	return bars
}

func testRisk() *risk.Calculator {
	return risk.New(risk.Config{
		ATRPeriod:          14,
		StopMultiplier:     2,
		TakeProfitMultiple: 1.5,
		FallbackStopPct:    0.025,
		RiskFraction:       0.02,
		MaxExposure:        1,
	})
}

// One window of 30 bars: train [0,10), test [10,30).
func testSimulator(d Decider, minHold int) *Simulator {
	return NewSimulator(d, testRisk(), SimulatorConfig{
		WindowSize:     30,
		StepSize:       20,
		InitialCapital: 10_000,
		CommissionRate: 0.001,
		MinHoldingDays: minHold,
		PeriodsPerYear: 252,
	}, nil, nil)
}

// longThenShort votes LONG on the first test bar and SHORT afterwards.
func longThenShort(bars []models.Bar) func(models.SignalRequest) models.Direction {
	return func(req models.SignalRequest) models.Direction {
		if req.AsOf.Equal(bars[10].Time) {
			return models.Long
		}
		return models.Short
	}
}

func TestWindows(t *testing.T) {
	ws, err := Windows(300, 252, 21)
	require.NoError(t, err)
	require.Len(t, ws, (300-252)/21+1)

	assert.Equal(t, models.Window{Index: 0, TrainStart: 0, TrainEnd: 231, TestStart: 231, TestEnd: 252}, ws[0])
	for k := 1; k < len(ws); k++ {
		assert.Equal(t, ws[k-1].TestEnd, ws[k].TestStart)
	}
	assert.LessOrEqual(t, ws[len(ws)-1].TestEnd, 300)

	ws, err = Windows(252, 252, 21)
	require.NoError(t, err)
	assert.Len(t, ws, 1)

	_, err = Windows(100, 252, 21)
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, err = Windows(300, 20, 21)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = Windows(300, 252, 0)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestSimulator_HoldingPeriodBlocksReversal(t *testing.T) {
	bars := quietBars(30)
	d := &scriptedDecider{vote: longThenShort(bars)}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	first := res.Trades[0]
	assert.Equal(t, models.Long, first.Position.Direction)
	assert.Equal(t, bars[11].Time, first.Position.EntryTime)
	assert.InDelta(t, bars[11].Open, first.Position.EntryPrice, 1e-9)
	assert.Equal(t, models.ExitReversal, first.ExitReason)
	assert.Equal(t, bars[18].Time, first.ExitTime)
	assert.Equal(t, 7, first.HoldingDays)
	assert.InDelta(t, 80, first.Position.Size, 1e-9)
	assert.InDelta(t, -(100+100)*80*0.001, first.PnL, 1e-9)

	// no re-entry on the reversal bar; next entry fills two bars later
	require.Len(t, res.Trades, 2)
	assert.Equal(t, models.Short, res.Trades[1].Position.Direction)
	assert.Equal(t, bars[20].Time, res.Trades[1].Position.EntryTime)
	assert.Equal(t, models.ExitWindowEnd, res.Trades[1].ExitReason)
	assert.Equal(t, bars[29].Time, res.Trades[1].ExitTime)
}

func TestSimulator_StopOverridesHoldingPeriod(t *testing.T) {
	bars := quietBars(30)
	bars[13].Low = 97
	d := &scriptedDecider{vote: longThenShort(bars)}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	first := res.Trades[0]
	assert.Equal(t, models.ExitStop, first.ExitReason)
	assert.InDelta(t, 97.5, first.ExitPrice, 1e-9)
	assert.Equal(t, 2, first.HoldingDays)
	assert.Less(t, first.PnL, 0.0)
}

func TestSimulator_TakeProfit(t *testing.T) {
	bars := quietBars(30)
	bars[12].High = 104
	d := &scriptedDecider{vote: longThenShort(bars)}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	first := res.Trades[0]
	assert.Equal(t, models.ExitTake, first.ExitReason)
	assert.InDelta(t, 103.75, first.ExitPrice, 1e-9)
	assert.Greater(t, first.PnL, 0.0)
}

func TestSimulator_GapThroughStopFillsAtOpen(t *testing.T) {
	bars := quietBars(30)
	bars[13].Open, bars[13].Low, bars[13].Close = 95, 94, 95
	d := &scriptedDecider{vote: longThenShort(bars)}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	first := res.Trades[0]
	assert.Equal(t, models.ExitStop, first.ExitReason)
	assert.InDelta(t, 95, first.ExitPrice, 1e-9)
}

func TestSimulator_WindowEndClosesAndDropsPending(t *testing.T) {
	bars := quietBars(30)
	d := &scriptedDecider{vote: func(models.SignalRequest) models.Direction { return models.Long }}

	res, err := testSimulator(d, 1000).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, models.ExitWindowEnd, res.Trades[0].ExitReason)
	assert.InDelta(t, bars[29].Close, res.Trades[0].ExitPrice, 1e-9)
	assert.Len(t, res.Equity, 20)
}

func TestSimulator_NoLookAhead(t *testing.T) {
	bars := quietBars(30)
	d := &scriptedDecider{vote: func(models.SignalRequest) models.Direction { return models.Flat }}

	_, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	require.Len(t, d.requests, 20)
	for _, req := range d.requests {
		require.NotEmpty(t, req.Bars)
		assert.Equal(t, req.AsOf, req.Bars[len(req.Bars)-1].Time)
	}
}

func TestSimulator_InsufficientHistorySkipsBars(t *testing.T) {
	bars := quietBars(30)
	d := &scriptedDecider{lookback: 15, vote: func(models.SignalRequest) models.Direction { return models.Flat }}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, 4, res.SkippedBars)
	assert.Len(t, d.requests, 16)
	assert.Empty(t, res.Trades)
	assert.Len(t, res.Equity, 20)
}

type failingDecider struct {
	lookback int
	err      error
	calls    int
}

func (d *failingDecider) Lookback() int { return d.lookback }

func (d *failingDecider) Decide(context.Context, models.SignalRequest) (*models.Decision, error) {
	d.calls++
	return nil, d.err
}

func TestSimulator_DecideErrorFailsSymbol(t *testing.T) {
	d := &failingDecider{lookback: 15, err: models.ErrInsufficientData}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", quietBars(30))

	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
	assert.Contains(t, err.Error(), "AAPL: window 0")
	assert.Equal(t, 1, d.calls, "short-history bars never reach the engine")
}

func TestSimulator_CompoundsEquity(t *testing.T) {
	bars := quietBars(30)
	bars[13].Low = 97
	d := &scriptedDecider{vote: longThenShort(bars)}

	res, err := testSimulator(d, 7).Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	total := 10_000.0
	for _, tr := range res.Trades {
		total += tr.PnL
	}
	assert.InDelta(t, total, res.Equity[len(res.Equity)-1].Equity, 1e-6)
	assert.InDelta(t, total, res.Metrics.FinalEquity, 1e-6)
	assert.Equal(t, len(res.Trades), res.Metrics.TradeCount)
}

func TestSimulator_ShortSeries(t *testing.T) {
	d := &scriptedDecider{vote: func(models.SignalRequest) models.Direction { return models.Flat }}

	_, err := testSimulator(d, 7).Run(context.Background(), "AAPL", quietBars(10))
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestSimulator_ThreeWindowsOver300Bars(t *testing.T) {
	bars := quietBars(300)
	d := &scriptedDecider{vote: func(models.SignalRequest) models.Direction { return models.Flat }}
	sim := NewSimulator(d, testRisk(), SimulatorConfig{
		WindowSize: 252, StepSize: 21, InitialCapital: 10_000, CommissionRate: 0.001, MinHoldingDays: 7,
	}, nil, nil)

	res, err := sim.Run(context.Background(), "AAPL", bars)
	require.NoError(t, err)

	assert.Len(t, res.Windows, 3)
	assert.Len(t, res.Equity, 3*21)
}
