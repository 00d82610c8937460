package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"
	xhttp "TradeSuite/pkg/http"
)

// HTTPSource asks a remote strategy service for its vote via POST {url}/signal.
type HTTPSource struct {
	id      string
	timeout time.Duration
	base    *HTTPServiceBase
}

func NewHTTPSource(id, url string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPSource {
	return &HTTPSource{
		id:      id,
		timeout: timeout,
		base:    NewHTTPServiceBase(url, timeout, opts...),
	}
}

type signalRequest struct {
	Symbol  string  `json:"symbol"`
	MinConf float64 `json:"min_conf"`
	AsOf    string  `json:"as_of,omitempty"`
}

type signalResponse struct {
	Signal     string          `json:"signal"`
	Confidence *float64        `json:"confidence"`
	Rationale  json.RawMessage `json:"rationale"`
}

func (s *HTTPSource) ID() string { return s.id }

func (s *HTTPSource) Timeout() time.Duration { return s.timeout }

func (s *HTTPSource) Signal(ctx context.Context, req models.SignalRequest) (models.SourceSignal, error) {
	body := signalRequest{Symbol: req.Symbol, MinConf: req.MinConf}
	if !req.AsOf.IsZero() {
		body.AsOf = req.AsOf.UTC().Format(time.DateOnly)
	}

	var resp signalResponse
	if err := s.base.PostJSON(ctx, "/signal", body, &resp); err != nil {
		return models.SourceSignal{}, err
	}
	return resp.toSignal()
}

// Health probes GET {url}/health.
func (s *HTTPSource) Health(ctx context.Context) error {
	return s.base.GetJSON(ctx, "/health", nil)
}

func (r signalResponse) toSignal() (models.SourceSignal, error) {
	dir, err := models.ParseDirection(r.Signal)
	if err != nil {
		return models.SourceSignal{}, fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	if r.Confidence == nil {
		return models.SourceSignal{}, fmt.Errorf("%w: missing confidence", models.ErrInvalidResponse)
	}
	conf := *r.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return models.SourceSignal{}, fmt.Errorf("%w: confidence %v outside [0,1]", models.ErrInvalidResponse, conf)
	}
	return models.SourceSignal{Signal: dir, Confidence: conf, Rationale: parseRationale(r.Rationale)}, nil
}

// parseRationale accepts a string or a list of strings.
func parseRationale(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}

var (
	_ domsvc.SignalSource  = (*HTTPSource)(nil)
	_ domsvc.TimeoutAware  = (*HTTPSource)(nil)
	_ domsvc.HealthChecker = (*HTTPSource)(nil)
)
