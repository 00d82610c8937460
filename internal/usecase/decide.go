package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"
)

// DecideUseCase serves live decisions: it loads recent bars, runs the engine and
// publishes the result.
type DecideUseCase struct {
	engine       Decider
	prices       domrepo.PriceProvider
	publisher    domrepo.DecisionPublisher
	metrics      domrepo.Metrics
	logger       *applogger.Logger
	lookbackBars int
	now          func() time.Time
}

// NewDecideUseCase wires the live path. prices, publisher and metrics may be nil.
func NewDecideUseCase(engine Decider, prices domrepo.PriceProvider, publisher domrepo.DecisionPublisher, metrics domrepo.Metrics, l *applogger.Logger, lookbackBars int) *DecideUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &DecideUseCase{
		engine:       engine,
		prices:       prices,
		publisher:    publisher,
		metrics:      metrics,
		logger:       l,
		lookbackBars: lookbackBars,
		now:          time.Now,
	}
}

type DecideParams struct {
	Symbol  string
	MinConf float64
}

// Decide always returns a decision unless configuration is broken. Missing price data
// only degrades the sources that need bars.
func (uc *DecideUseCase) Decide(ctx context.Context, p DecideParams) (*models.Decision, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	req := models.SignalRequest{Symbol: symbol, MinConf: p.MinConf, Bars: uc.recentBars(ctx, symbol)}

	d, err := uc.engine.Decide(ctx, req)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("decide")
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordDecision("live", string(d.Direction))
	}
	uc.logger.Info("decision",
		applogger.String("symbol", symbol),
		applogger.String("direction", string(d.Direction)),
		applogger.Float64("confidence", d.Confidence),
		applogger.Int("ok_sources", d.OKCount),
		applogger.Int("sources", d.SourceCount),
		applogger.Bool("quorum", d.QuorumMet),
	)

	if uc.publisher != nil {
		if err := uc.publisher.PublishDecision(ctx, d); err != nil {
			uc.logger.Warn("publish decision failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return d, nil
}

func (uc *DecideUseCase) recentBars(ctx context.Context, symbol string) []models.Bar {
	need := max(uc.lookbackBars, uc.engine.Lookback())
	if uc.prices == nil || need == 0 {
		return nil
	}
	end := uc.now().UTC()
	// Trading days to calendar days with slack for holidays.
	start := end.AddDate(0, 0, -(need*7/5 + 10))

	bars, err := uc.prices.GetPrices(ctx, symbol, start, end)
	if err != nil {
		uc.logger.Warn("price history unavailable",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil
	}
	if len(bars) > need {
		bars = bars[len(bars)-need:]
	}
	return bars
}
