package di

import (
	"testing"

	"TradeSuite/internal/repository"
	"TradeSuite/pkg/config"
	applogger "TradeSuite/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localYAML = `
environment: test
logger:
  level: error
sources:
  - id: turtle
    type: donchian
  - id: trend
    type: sma_trend
backtest:
  symbols: [AAPL]
  start: "2022-01-03"
  end: "2024-01-02"
`

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(localYAML))
	require.NoError(t, err)
	cfg.Backtest.OutputDir = t.TempDir()
	return cfg
}

func TestInitializeAppWithoutInfrastructure(t *testing.T) {
	app, cleanup, err := InitializeApp(localConfig(t))
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app)
}

func TestInitializeBacktestWithFileSink(t *testing.T) {
	bt, cleanup, err := InitializeBacktest(localConfig(t))
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, bt)
}

func TestInitializeDecider(t *testing.T) {
	uc, cleanup, err := InitializeDecider(localConfig(t))
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, uc)
}

func TestProvideCacheDisabled(t *testing.T) {
	cfg := localConfig(t)
	cfg.Prices.Cache.Enabled = false

	c, cleanup, err := ProvideCache(cfg)
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, c)
}

func TestProvidePriceProviderWrapsCache(t *testing.T) {
	cfg := localConfig(t)
	c, cleanup, err := ProvideCache(cfg)
	require.NoError(t, err)
	defer cleanup()

	p, err := ProvidePriceProvider(cfg, nil, c, applogger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &repository.CachedPriceProvider{}, p)

	p, err = ProvidePriceProvider(cfg, nil, nil, applogger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &repository.HTTPPriceProvider{}, p)
}

func TestProvidePriceProviderClickHouseNeedsClient(t *testing.T) {
	cfg := localConfig(t)
	cfg.Prices.Provider = "clickhouse"

	_, err := ProvidePriceProvider(cfg, nil, nil, applogger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestProvideResultSinks(t *testing.T) {
	cfg := localConfig(t)

	sinks, err := ProvideResultSinks(cfg, nil, nil, applogger.Nop())
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "file", sinks[0].Name())

	cfg.Backtest.Sinks = []string{"file", "kafka"}
	_, err = ProvideResultSinks(cfg, nil, nil, applogger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestProvideDecisionPublisherNilWithoutKafka(t *testing.T) {
	assert.Nil(t, ProvideDecisionPublisher(localConfig(t), nil))
}

func TestProvideLogShippingNeedsProducer(t *testing.T) {
	cfg := localConfig(t)
	cfg.Logger.CollectErrors = true

	shipping, cleanup := ProvideLogShipping(cfg, applogger.Nop(), nil)
	cleanup()
	assert.False(t, bool(shipping))
}

func TestProvideBatchRunnerRejectsEmptySymbols(t *testing.T) {
	cfg := localConfig(t)
	cfg.Backtest.Symbols = nil

	sim := ProvideSimulator(cfg, nil, ProvideRiskCalculator(cfg), nil, applogger.Nop())
	_, err := ProvideBatchRunner(cfg, sim, nil, nil, nil, applogger.Nop())
	assert.Error(t, err)
}
