package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/usecase"
	"TradeSuite/pkg/config"
	xhttp "TradeSuite/pkg/http"
	applogger "TradeSuite/pkg/logger"
)

// LogShipping reports whether logged errors are also shipped to Kafka.
type LogShipping bool

// App encapsulates the decision service lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	shipping   LogShipping
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, shipping LogShipping) *App {
	return &App{cfg: cfg, logger: l, httpServer: srv, shipping: shipping}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the process is interrupted.
// Infrastructure clients are closed by the injector cleanup after Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("decision service started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("sources", len(a.cfg.Sources)),
		applogger.Bool("log_shipping", bool(a.shipping)))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}

// Backtest runs one batch backtest under the process signal context.
type Backtest struct {
	runner *usecase.BatchRunner
	logger *applogger.Logger
}

func NewBacktest(runner *usecase.BatchRunner, l *applogger.Logger) *Backtest {
	return &Backtest{runner: runner, logger: l}
}

// Run executes the batch. An interrupt cancels the symbols still running.
func (b *Backtest) Run(ctx context.Context) (*models.BacktestReport, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := b.runner.Run(ctx)
	if report == nil {
		b.logger.Error("backtest failed", applogger.Error(err))
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		b.logger.Warn("backtest interrupted, remaining symbols were cancelled")
	}
	return report, err
}
