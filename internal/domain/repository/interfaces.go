package repository

import (
	"context"
	"time"

	"InvestAgent/internal/domain/models"
)

// MarketStream is a live feed connection to one provider.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher routes ticks to a message backend.
type Publisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

// TickStore persists and queries raw ticks.
type TickStore interface {
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error)
	Health(ctx context.Context) error
	Close() error
}

// CandleStore provides read access to aggregated candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// PerformanceStore persists model invocation samples for history.
type PerformanceStore interface {
	Append(ctx context.Context, s *models.PerformanceSample) error
}

// AlertStore persists alert rules.
type AlertStore interface {
	Save(ctx context.Context, rule *models.AlertRule) error
	Get(ctx context.Context, id string) (*models.AlertRule, error)
	List(ctx context.Context) ([]*models.AlertRule, error)
	Delete(ctx context.Context, id string) error
}

// Metrics is the observability port used across the platform.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordTokens(modelID string, input, output int)
	RecordAlertFired(symbol, condition string)
}
