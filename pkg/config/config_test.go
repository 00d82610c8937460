package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
sources:
  - id: breakout
    type: donchian
  - id: trend
    type: http
    url: http://localhost:8001
    timeout: 5s
backtest:
  symbols: [AAPL, MSFT]
  start: "2022-01-03"
  end: "2024-01-02"
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 0.7, c.Decision.MinConfidence)
	assert.Equal(t, 0.5, c.Decision.QuorumFraction)
	assert.Equal(t, 7, c.Decision.MinHoldingDays)
	assert.Equal(t, 14, c.Risk.ATRPeriod)
	assert.Equal(t, 1.5, c.Risk.TakeProfitMultiple)
	assert.Equal(t, 0.025, c.Risk.FallbackStopPct)
	assert.Equal(t, 252, c.Backtest.WindowSize)
	assert.Equal(t, 21, c.Backtest.StepSize)
	assert.Equal(t, 100000.0, c.Backtest.InitialCapital)
	assert.Equal(t, 0.001, c.Backtest.CommissionRate)
	assert.Equal(t, []string{"file"}, c.Backtest.Sinks)
	assert.Equal(t, time.Hour, c.Prices.Cache.TTL)

	require.Len(t, c.Sources, 2)
	assert.Equal(t, 180*time.Second, c.Sources[0].Timeout)
	assert.Equal(t, 5*time.Second, c.Sources[1].Timeout)
}

func TestParseRejectsInvalidConfigs(t *testing.T) {
	cases := map[string]string{
		"no sources": `
environment: test
`,
		"step larger than window": minimalYAML + `
  window_size: 10
  step_size: 20
`,
		"http source without url": `
environment: test
sources:
  - id: trend
    type: http
`,
		"duplicate ids": `
environment: test
sources:
  - id: a
    type: donchian
  - id: a
    type: sma_trend
`,
		"threshold out of range": minimalYAML + `
decision:
  min_confidence: 1.5
`,
		"kafka sink without kafka": minimalYAML + `
  sinks: [kafka]
`,
		"unknown source type": `
environment: test
sources:
  - id: a
    type: neural
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	t.Setenv("SYMBOLS", "SPY, QQQ ,")
	t.Setenv("MIN_CONFIDENCE", "0.6")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ"}, c.Backtest.Symbols)
	assert.Equal(t, 0.6, c.Decision.MinConfidence)
}

func TestBacktestRange(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	start, end, err := c.BacktestRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), end)

	c.Backtest.End = "2021-01-01"
	_, _, err = c.BacktestRange()
	assert.ErrorIs(t, err, ErrInvalid)
}
