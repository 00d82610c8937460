//go:build wireinject
// +build wireinject

package di

import (
	"TradeSuite/internal/usecase"
	"TradeSuite/pkg/config"
	"TradeSuite/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideCache,
	ProvidePriceProvider,
	ProvideLogShipping,
)

var engineSet = wire.NewSet(
	ProvideSignalSources,
	ProvideCollector,
	ProvideAggregator,
	ProvideRiskCalculator,
	ProvideDecisionEngine,
)

// InitializeApp wires the HTTP decision service.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		engineSet,

		ProvideDecisionPublisher,
		ProvideDecideUseCase,
		ProvideRateLimiter,
		ProvideDecisionHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeDecider wires a one-shot live decision for the CLI.
func InitializeDecider(cfg *config.Config) (*usecase.DecideUseCase, func(), error) {
	wire.Build(
		infraSet,
		engineSet,

		ProvideDecisionPublisher,
		ProvideDecideUseCase,
	)
	return nil, nil, nil
}

// InitializeBacktest wires the walk-forward batch runner.
func InitializeBacktest(cfg *config.Config) (*server.Backtest, func(), error) {
	wire.Build(
		infraSet,
		engineSet,

		ProvideSimulator,
		ProvideResultSinks,
		ProvideBatchRunner,

		ProvideBacktest,
	)
	return nil, nil, nil
}
