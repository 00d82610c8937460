package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"TradeSuite/internal/domain/models"
	"TradeSuite/internal/service/ratelimit"
	"TradeSuite/internal/usecase"
	xhttp "TradeSuite/pkg/http"
	applogger "TradeSuite/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Decider is the live decision use case.
type Decider interface {
	Decide(ctx context.Context, p usecase.DecideParams) (*models.Decision, error)
}

// SourceProber reports source health.
type SourceProber interface {
	Health(ctx context.Context, timeout time.Duration) []models.SourceStatus
}

// DecisionHandler serves the decision API.
type DecisionHandler struct {
	decider      Decider
	sources      SourceProber
	limiter      *ratelimit.Limiter
	logger       *applogger.Logger
	probeTimeout time.Duration
}

func NewDecisionHandler(decider Decider, sources SourceProber, limiter *ratelimit.Limiter, l *applogger.Logger) *DecisionHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &DecisionHandler{
		decider:      decider,
		sources:      sources,
		limiter:      limiter,
		logger:       l,
		probeTimeout: 5 * time.Second,
	}
}

func (h *DecisionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.POST("/decide", h.Decide)
	g.GET("/sources/status", h.SourcesStatus)
}

type decisionResponse struct {
	Decision   models.Direction      `json:"decision"`
	Confidence float64               `json:"confidence"`
	Symbol     string                `json:"symbol"`
	Components []models.SignalReport `json:"components"`
	SLPct      float64               `json:"sl_pct"`
	TPMultiple float64               `json:"tp_multiple"`
	QuorumMet  bool                  `json:"quorum_met"`
	Agreement  float64               `json:"agreement"`
	Timestamp  time.Time             `json:"timestamp"`
}

func (h *DecisionHandler) Decide(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	req := &models.DecideRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	d, err := h.decider.Decide(c.Request().Context(), usecase.DecideParams{Symbol: req.Symbol, MinConf: req.MinConf})
	if err != nil {
		h.logger.Error("decide usecase error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		if errors.Is(err, models.ErrConfiguration) {
			return xhttp.AppErrorResponse(c, xhttp.InternalError("engine misconfigured").WithError(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, decisionResponse{
		Decision:   d.Direction,
		Confidence: d.Confidence,
		Symbol:     d.Symbol,
		Components: d.Components,
		SLPct:      d.StopLossPct,
		TPMultiple: d.TakeProfitMultiple,
		QuorumMet:  d.QuorumMet,
		Agreement:  d.Agreement,
		Timestamp:  d.Timestamp,
	})
}

func (h *DecisionHandler) SourcesStatus(c echo.Context) error {
	statuses := h.sources.Health(c.Request().Context(), h.probeTimeout)
	healthy := 0
	for _, s := range statuses {
		if s.Healthy {
			healthy++
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"healthy": healthy,
		"total":   len(statuses),
		"sources": statuses,
	})
}

func (h *DecisionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
