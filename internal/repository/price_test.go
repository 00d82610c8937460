package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TradeSuite/internal/domain/models"
	"TradeSuite/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rangeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func TestHTTPPriceProvider_GetPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("end"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"date":"2024-01-03","open":11,"high":12,"low":10,"close":11.5,"volume":900},
			{"date":"2024-01-02","open":10,"high":11,"low":9,"close":10.5,"volume":1000}
		]}`))
	}))
	defer srv.Close()

	bars, err := NewHTTPPriceProvider(srv.URL+"/", time.Second, nil).GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.InDelta(t, 10.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 900, bars[1].Volume, 1e-9)
}

func TestHTTPPriceProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusBadGateway, body: `{"detail":"upstream"}`},
		{name: "bad date", status: http.StatusOK, body: `{"data":[{"date":"yesterday","close":1}]}`},
		{name: "empty", status: http.StatusOK, body: `{"data":[]}`, wantErr: models.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPPriceProvider(srv.URL, time.Second, nil).GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

type countingProvider struct {
	calls int
	bars  []models.Bar
	err   error
}

func (p *countingProvider) GetPrices(context.Context, string, time.Time, time.Time) ([]models.Bar, error) {
	p.calls++
	return p.bars, p.err
}

func TestCachedPriceProvider(t *testing.T) {
	next := &countingProvider{bars: []models.Bar{{Time: rangeStart, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}}}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	p := NewCachedPriceProvider(next, mem, time.Hour, nil)

	first, err := p.GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)
	require.NoError(t, err)
	second, err := p.GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)

	_, err = p.GetPrices(context.Background(), "MSFT", rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedPriceProvider_ErrorsNotCached(t *testing.T) {
	next := &countingProvider{err: errors.New("down")}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	p := NewCachedPriceProvider(next, mem, time.Hour, nil)

	_, err := p.GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)
	require.Error(t, err)
	_, err = p.GetPrices(context.Background(), "AAPL", rangeStart, rangeEnd)
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}
