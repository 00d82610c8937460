package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TradeSuite/internal/domain/models"
	xhttp "TradeSuite/pkg/http"
)

// HTTPServiceBase holds the client and base URL shared by HTTP-backed sources.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a client bounded by timeout. The per-call deadline still comes from ctx.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(opts...),
	}
}

// PostJSON posts payload to path under baseURL and decodes the JSON answer into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload, dest interface{}) error {
	return b.do(ctx, xhttp.MethodPost, path, payload, dest)
}

// GetJSON issues a GET to path; dest may be nil to ignore the body.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return b.do(ctx, xhttp.MethodGet, path, nil, dest)
}

func (b *HTTPServiceBase) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%w: http client not initialized", models.ErrSourceUnavailable)
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: method,
		URL:    b.baseURL + path,
		Body:   payload,
	}, dest)
	if err != nil {
		return classify(fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err))
	}
	return nil
}

// classify maps transport outcomes onto the domain taxonomy: undecodable bodies are
// invalid responses, everything else (timeouts, refused connections, non-2xx) is unavailability.
func classify(err error) error {
	if xhttp.IsDecodeError(err) {
		return fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	return fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
}
