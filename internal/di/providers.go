package di

import (
	"context"
	"fmt"
	"time"

	"TradeSuite/internal/domain/repository"
	domsvc "TradeSuite/internal/domain/service"
	"TradeSuite/internal/handler/api"
	internalrepo "TradeSuite/internal/repository"
	"TradeSuite/internal/service/ratelimit"
	"TradeSuite/internal/services/aggregation"
	"TradeSuite/internal/services/risk"
	"TradeSuite/internal/services/signals"
	"TradeSuite/internal/strategy"
	"TradeSuite/internal/usecase"
	"TradeSuite/pkg/cache"
	pkgch "TradeSuite/pkg/clickhouse"
	"TradeSuite/pkg/config"
	xhttp "TradeSuite/pkg/http"
	pkgkafka "TradeSuite/pkg/kafka"
	applogger "TradeSuite/pkg/logger"
	"TradeSuite/pkg/metrics"
	"TradeSuite/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry shared by every collector.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects and creates the schema. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ch := cfg.ClickHouse

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(ch.Host, ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	schema := internalrepo.NewClickHouseSink(client.DB(), client.Database(), nil).Schema(cfg.Prices.Table)
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(reg,
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithDelivery(k.RequiredAcks, k.Compression, k.Producer.MaxAttempts),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.BatchBytes, k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.ReadTimeout),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideCache creates the price cache backend. Returns nil when caching is disabled.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	pc := cfg.Prices.Cache
	if !pc.Enabled {
		return nil, func() {}, nil
	}

	memory := func() cache.Service {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(pc.MaxSize),
			cache.WithMemoryDefaultTTL(pc.TTL),
			cache.WithMemoryCleanup(pc.Cleanup),
		)
	}
	redisCache := func() (cache.Service, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
			cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	var (
		svc cache.Service
		err error
	)
	switch pc.Backend {
	case "redis":
		svc, err = redisCache()
	case "layered":
		var l2 cache.Service
		if l2, err = redisCache(); err == nil {
			svc = cache.NewLayeredCache(l2, pc.MaxSize, pc.TTL)
		}
	default:
		svc = memory()
	}
	if err != nil {
		return nil, nil, err
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvidePriceProvider selects the bar source and wraps it with the cache when one is configured.
func ProvidePriceProvider(cfg *config.Config, ch *pkgch.Client, c cache.Service, l *applogger.Logger) (repository.PriceProvider, error) {
	var base repository.PriceProvider
	switch cfg.Prices.Provider {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("%w: prices.provider clickhouse requires clickhouse.enabled", config.ErrInvalid)
		}
		base = internalrepo.NewCHPriceStore(ch.DB(), cfg.Prices.Table, l)
	default:
		base = internalrepo.NewHTTPPriceProvider(cfg.Prices.BaseURL, cfg.Prices.Timeout, l)
	}
	if c == nil {
		return base, nil
	}
	return internalrepo.NewCachedPriceProvider(base, c, cfg.Prices.Cache.TTL, l), nil
}

// ProvideDecisionPublisher returns the Kafka decision publisher, or nil without Kafka.
func ProvideDecisionPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.DecisionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Decisions)
}

// ProvideSignalSources builds the configured voters.
func ProvideSignalSources(cfg *config.Config) ([]domsvc.SignalSource, error) {
	return strategy.NewSources(cfg.Sources)
}

func ProvideCollector(sources []domsvc.SignalSource, m repository.Metrics, l *applogger.Logger) *signals.Collector {
	return signals.NewCollector(sources, signals.DefaultTimeout, m, l)
}

func ProvideAggregator(cfg *config.Config) *aggregation.Aggregator {
	return aggregation.New(aggregation.Config{
		MinConfidence:  cfg.Decision.MinConfidence,
		QuorumFraction: cfg.Decision.QuorumFraction,
	})
}

func ProvideRiskCalculator(cfg *config.Config) *risk.Calculator {
	r := cfg.Risk
	return risk.New(risk.Config{
		ATRPeriod:          r.ATRPeriod,
		StopMultiplier:     r.StopMultiplier,
		TakeProfitMultiple: r.TakeProfitMultiple,
		FallbackStopPct:    r.FallbackStopPct,
		RiskFraction:       r.RiskFraction,
		MaxExposure:        r.MaxExposure,
	})
}

func ProvideDecisionEngine(c *signals.Collector, agg *aggregation.Aggregator, rc *risk.Calculator, m repository.Metrics) *usecase.DecisionEngine {
	return usecase.NewDecisionEngine(c, agg, rc, m)
}

func ProvideDecideUseCase(cfg *config.Config, engine *usecase.DecisionEngine, prices repository.PriceProvider, pub repository.DecisionPublisher, m repository.Metrics, l *applogger.Logger) *usecase.DecideUseCase {
	return usecase.NewDecideUseCase(engine, prices, pub, m, l, cfg.Decision.LookbackBars)
}

func ProvideSimulator(cfg *config.Config, engine *usecase.DecisionEngine, rc *risk.Calculator, m repository.Metrics, l *applogger.Logger) *usecase.Simulator {
	b := cfg.Backtest
	return usecase.NewSimulator(engine, rc, usecase.SimulatorConfig{
		WindowSize:     b.WindowSize,
		StepSize:       b.StepSize,
		InitialCapital: b.InitialCapital,
		CommissionRate: b.CommissionRate,
		MinHoldingDays: cfg.Decision.MinHoldingDays,
		MinConfidence:  cfg.Decision.MinConfidence,
		PeriodsPerYear: b.PeriodsPerYear,
	}, m, l)
}

// ProvideResultSinks builds the configured backtest sinks in order.
func ProvideResultSinks(cfg *config.Config, ch *pkgch.Client, producer *pkgkafka.Producer, l *applogger.Logger) ([]repository.ResultSink, error) {
	sinks := make([]repository.ResultSink, 0, len(cfg.Backtest.Sinks))
	for _, name := range cfg.Backtest.Sinks {
		switch name {
		case "file":
			sinks = append(sinks, internalrepo.NewFileSink(cfg.Backtest.OutputDir, l))
		case "clickhouse":
			if ch == nil {
				return nil, fmt.Errorf("%w: sink clickhouse requires clickhouse.enabled", config.ErrInvalid)
			}
			sinks = append(sinks, internalrepo.NewClickHouseSink(ch.DB(), ch.Database(), l))
		case "kafka":
			if producer == nil {
				return nil, fmt.Errorf("%w: sink kafka requires kafka.enabled", config.ErrInvalid)
			}
			sinks = append(sinks, internalrepo.NewKafkaSink(producer, cfg.Kafka.Topics.Backtests))
		default:
			return nil, fmt.Errorf("%w: unknown sink %q", config.ErrInvalid, name)
		}
	}
	return sinks, nil
}

func ProvideBatchRunner(cfg *config.Config, sim *usecase.Simulator, prices repository.PriceProvider, sinks []repository.ResultSink, m repository.Metrics, l *applogger.Logger) (*usecase.BatchRunner, error) {
	start, end, err := cfg.BacktestRange()
	if err != nil {
		return nil, err
	}
	runner := usecase.NewBatchRunner(sim, prices, sinks, m, l, usecase.BatchConfig{
		Symbols:      cfg.Backtest.Symbols,
		Start:        start,
		End:          end,
		Concurrency:  cfg.Backtest.Concurrency,
		RiskFraction: cfg.Risk.RiskFraction,
	})
	if err := runner.Validate(); err != nil {
		return nil, err
	}
	return runner, nil
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideDecisionHandler(uc *usecase.DecideUseCase, c *signals.Collector, limiter *ratelimit.Limiter, l *applogger.Logger) *api.DecisionHandler {
	return api.NewDecisionHandler(uc, c, limiter, l)
}

// ProvideHTTPServer builds the echo server and mounts /metrics when enabled.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.DecisionHandler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, h, opts...)
}

// ProvideLogShipping attaches the error collector to the logger when Kafka is available.
// Its cleanup flushes the collector before the producer is closed.
func ProvideLogShipping(cfg *config.Config, l *applogger.Logger, producer *pkgkafka.Producer) (server.LogShipping, func()) {
	if !cfg.Logger.CollectErrors || producer == nil {
		return false, func() {}
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logger.FlushInterval,
		CountThreshold: cfg.Logger.Threshold,
		Topic:          cfg.Logger.Topic,
		Publisher:      producer,
	})
	return true, l.RemoveCollector
}

func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, shipping server.LogShipping) *server.App {
	return server.New(cfg, l, srv, shipping)
}

// ProvideBacktest bundles the batch runner with the logger it reports through.
func ProvideBacktest(runner *usecase.BatchRunner, l *applogger.Logger, _ server.LogShipping) *server.Backtest {
	return server.NewBacktest(runner, l)
}
