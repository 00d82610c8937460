package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"
	"TradeSuite/pkg/util"

	"github.com/go-resty/resty/v2"
)

// HTTPPriceProvider reads daily bars from the price API: GET {base}/prices?symbol&start&end.
type HTTPPriceProvider struct {
	client *resty.Client
	l      *applogger.Logger
}

func NewHTTPPriceProvider(baseURL string, timeout time.Duration, l *applogger.Logger) *HTTPPriceProvider {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if l == nil {
		l = applogger.Nop()
	}
	return &HTTPPriceProvider{client: client, l: l}
}

type priceBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type pricesResponse struct {
	Data []priceBar `json:"data"`
}

func (p *HTTPPriceProvider) GetPrices(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	began := time.Now()
	var out pricesResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"start":  start.Format(time.DateOnly),
			"end":    end.Format(time.DateOnly),
		}).
		SetResult(&out).
		Get("/prices")
	if err != nil {
		return nil, fmt.Errorf("get prices %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get prices %s: status %d: %s", symbol, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	bars, err := toBars(out.Data)
	if err != nil {
		return nil, fmt.Errorf("get prices %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", models.ErrInsufficientData, symbol)
	}

	p.l.Debug("price api ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return bars, nil
}

func toBars(rows []priceBar) ([]models.Bar, error) {
	bars := make([]models.Bar, 0, len(rows))
	for _, r := range rows {
		ts, ok := util.ParseTime(r.Date)
		if !ok {
			return nil, fmt.Errorf("invalid bar date %q", r.Date)
		}
		bars = append(bars, models.Bar{Time: ts.UTC(), Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	slices.SortStableFunc(bars, func(a, b models.Bar) int { return a.Time.Compare(b.Time) })
	return bars, nil
}

var _ domrepo.PriceProvider = (*HTTPPriceProvider)(nil)
