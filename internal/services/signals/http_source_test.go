package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignalServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Signal(t *testing.T) {
	var got signalRequest
	srv := newSignalServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/signal", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"signal":"long","confidence":0.82,"rationale":["breakout","volume"]}`))
	})

	src := NewHTTPSource("turtle", srv.URL+"/", time.Second)
	sig, err := src.Signal(context.Background(), models.SignalRequest{
		Symbol:  "AAPL",
		MinConf: 0.7,
		AsOf:    time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, models.Long, sig.Signal)
	assert.InDelta(t, 0.82, sig.Confidence, 1e-9)
	assert.Equal(t, "breakout; volume", sig.Rationale)
	assert.Equal(t, signalRequest{Symbol: "AAPL", MinConf: 0.7, AsOf: "2024-03-01"}, got)
	assert.Equal(t, "turtle", src.ID())
	assert.Equal(t, time.Second, src.Timeout())
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		delay   time.Duration
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: models.ErrSourceUnavailable},
		{name: "malformed json", status: http.StatusOK, body: `{"signal":`, wantErr: models.ErrInvalidResponse},
		{name: "unknown signal", status: http.StatusOK, body: `{"signal":"BUY","confidence":0.5}`, wantErr: models.ErrInvalidResponse},
		{name: "confidence above one", status: http.StatusOK, body: `{"signal":"LONG","confidence":1.2}`, wantErr: models.ErrInvalidResponse},
		{name: "missing confidence", status: http.StatusOK, body: `{"signal":"SHORT"}`, wantErr: models.ErrInvalidResponse},
		{name: "timeout", status: http.StatusOK, body: `{"signal":"LONG","confidence":0.9}`, delay: 200 * time.Millisecond, wantErr: models.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSignalServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.delay > 0 {
					select {
					case <-time.After(tt.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := NewHTTPSource("s", srv.URL, time.Second).Signal(ctx, models.SignalRequest{Symbol: "AAPL"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPSource_Health(t *testing.T) {
	healthy := true
	srv := newSignalServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	src := NewHTTPSource("s", srv.URL, time.Second)
	require.NoError(t, src.Health(context.Background()))

	healthy = false
	assert.ErrorIs(t, src.Health(context.Background()), models.ErrSourceUnavailable)
}

func TestParseRationale(t *testing.T) {
	assert.Equal(t, "", parseRationale(nil))
	assert.Equal(t, "trend up", parseRationale(json.RawMessage(`"trend up"`)))
	assert.Equal(t, "a; b", parseRationale(json.RawMessage(`["a","b"]`)))
	assert.Equal(t, `{"x":1}`, parseRationale(json.RawMessage(`{"x":1}`)))
}
