package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"InvestAgent/internal/domain/models"
	domrepo "InvestAgent/internal/domain/repository"
	pkgch "InvestAgent/pkg/clickhouse"
	applogger "InvestAgent/pkg/logger"
)

// CHCandleStore implements CandleStore by aggregating the raw ticks table
// on read. Timeframes map to toStartOfInterval buckets.
type CHCandleStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, ticksTable string) *CHCandleStore {
	return &CHCandleStore{db: ch.DB(), table: ticksTable}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	interval, err := intervalForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT toStartOfInterval(ts, INTERVAL %s) AS bucket, symbol,
               argMin(price, ts) AS open, max(price) AS high,
               min(price) AS low, argMax(price, ts) AS close,
               sum(volume) AS vol
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        GROUP BY bucket, symbol
        ORDER BY bucket ASC
    `, interval, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_candles query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_candles ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	interval, err := intervalForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol FROM (
            SELECT toStartOfInterval(ts, INTERVAL %s) AS bucket, symbol,
                   argMin(price, ts) AS open, max(price) AS high,
                   min(price) AS low, argMax(price, ts) AS close,
                   sum(volume) AS vol
            FROM %s
            WHERE symbol = ?
            GROUP BY bucket, symbol
            ORDER BY bucket DESC
            LIMIT ?
        )
        ORDER BY bucket ASC
    `, interval, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_candles query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func intervalForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1s:
		return "1 SECOND", nil
	case domrepo.TF1m:
		return "1 MINUTE", nil
	case domrepo.TF5m:
		return "5 MINUTE", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)
