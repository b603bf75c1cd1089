package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"BondPulse/internal/domain/models"
	drepo "BondPulse/internal/domain/repository"
)

// CurveProcessor routes parsed curve points to the configured backend.
type CurveProcessor struct {
	pub     drepo.CurvePublisher
	store   drepo.CurveStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewCurveProcessor creates a new CurveProcessor instance.
func NewCurveProcessor(
	pub drepo.CurvePublisher,
	store drepo.CurveStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *CurveProcessor {
	return &CurveProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single curve point to the configured backend.
func (p *CurveProcessor) Process(ctx context.Context, pt *models.CurvePoint) error {
	if pt == nil {
		return fmt.Errorf("curve point is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, pt)
	case "clickhouse":
		err = p.store.Store(ctx, pt)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process curve point: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, tenorLabel(pt.Horizon))
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple curve points in a batch.
func (p *CurveProcessor) ProcessBatch(ctx context.Context, points []*models.CurvePoint) error {
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, points)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, points)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, pt := range points {
		p.metrics.RecordMessageSent(p.backend, tenorLabel(pt.Horizon))
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *CurveProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

func tenorLabel(horizon float64) string {
	return strconv.FormatFloat(horizon, 'g', -1, 64) + "y"
}
