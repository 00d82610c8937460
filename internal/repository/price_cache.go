package repository

import (
	"context"
	"errors"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	"TradeSuite/pkg/cache"
	applogger "TradeSuite/pkg/logger"
)

// CachedPriceProvider memoises another provider by symbol and date range.
// Cache failures fall through to the wrapped provider.
type CachedPriceProvider struct {
	next  domrepo.PriceProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedPriceProvider(next domrepo.PriceProvider, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedPriceProvider {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedPriceProvider{next: next, cache: c, ttl: ttl, l: l}
}

func (p *CachedPriceProvider) GetPrices(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	key := cache.Key("prices", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))

	bars, err := cache.GetJSON[[]models.Bar](ctx, p.cache, key)
	if err == nil {
		return bars, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		p.l.Warn("price cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	bars, err = p.next.GetPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, p.cache, key, bars, p.ttl); err != nil {
		p.l.Warn("price cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return bars, nil
}

var _ domrepo.PriceProvider = (*CachedPriceProvider)(nil)
