package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeSuite/internal/domain/models"
	domrepo "TradeSuite/internal/domain/repository"
	applogger "TradeSuite/pkg/logger"
)

// CHPriceStore reads daily candles from a ClickHouse table with columns
// (symbol, date, open, high, low, close, volume).
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(db *sql.DB, table string, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{db: db, table: table, l: l}
}

func (s *CHPriceStore) GetPrices(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	began := time.Now()
	const qtpl = `
        SELECT date, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), symbol, start, end)
	if err != nil {
		s.l.Error("clickhouse get_prices query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 512)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = b.Time.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s in %s", models.ErrInsufficientData, symbol, s.table)
	}

	s.l.Info("clickhouse get_prices ok",
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return out, nil
}

var _ domrepo.PriceProvider = (*CHPriceStore)(nil)
