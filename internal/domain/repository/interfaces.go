package repository

import (
	"context"
	"time"

	"BondPulse/internal/domain/models"
)

// BondSource pulls raw screener inputs from the exchange.
type BondSource interface {
	FetchBonds(ctx context.Context) ([]models.Bond, error)
	FetchCurveHistory(ctx context.Context, from, to time.Time) ([]models.CurveRecord, error)
}

// CurvePublisher ships parsed curve points to the ingest backend.
type CurvePublisher interface {
	Publish(ctx context.Context, p *models.CurvePoint) error
	PublishBatch(ctx context.Context, points []*models.CurvePoint) error
	Close() error
}

// CurveStore persists curve history and serves range queries.
type CurveStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, p *models.CurvePoint) error
	StoreBatch(ctx context.Context, points []*models.CurvePoint) error
	Query(ctx context.Context, from, to time.Time, limit int) ([]*models.CurvePoint, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// CollectionStore keeps user-defined bond collections.
type CollectionStore interface {
	Save(ctx context.Context, name string, secids []string) error
	Get(ctx context.Context, name string) ([]string, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

type Metrics interface {
	RecordMessageSent(backend, tenor string)
	RecordError(kind string)
	RecordRefresh(source, status string)
	RecordBondsLoaded(n int)
	RecordCurveDate(unixSeconds int64)
	RecordRowsServed(endpoint string, n int)
	RecordLatency(op string, seconds float64)
}
