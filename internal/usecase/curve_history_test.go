package usecase

import (
	"context"
	"testing"
	"time"

	"BondPulse/internal/domain/models"
)

type memCurveStore struct {
	points []*models.CurvePoint
}

func (m *memCurveStore) Init(ctx context.Context) error { return nil }

func (m *memCurveStore) Store(ctx context.Context, p *models.CurvePoint) error {
	m.points = append(m.points, p)
	return nil
}

func (m *memCurveStore) StoreBatch(ctx context.Context, points []*models.CurvePoint) error {
	m.points = append(m.points, points...)
	return nil
}

func (m *memCurveStore) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.CurvePoint, error) {
	var out []*models.CurvePoint
	for _, p := range m.points {
		if p.TradeDate.Before(from) || p.TradeDate.After(to) {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memCurveStore) Health(ctx context.Context) error { return nil }
func (m *memCurveStore) Close() error                     { return nil }

func TestCurveHistoryCurves(t *testing.T) {
	d1 := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	store := &memCurveStore{points: []*models.CurvePoint{
		{TradeDate: d1, Horizon: 1, Yield: 5.0},
		{TradeDate: d1, Horizon: 5, Yield: 6.4},
		{TradeDate: d1, Horizon: 3, Yield: 6.0},
		{TradeDate: d2, Horizon: 1, Yield: 5.1},
		{TradeDate: d2, Horizon: 3, Yield: 6.1},
	}}
	h := NewCurveHistory(store, nopMetrics{})

	curves, err := h.Curves(context.Background(), &models.CurveHistoryRequest{
		From: "2026-08-20",
		To:   "2026-08-27",
		N:    30,
	})
	if err != nil {
		t.Fatalf("curves: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("expected 2 curves, got %d", len(curves))
	}
	// Newest first.
	if !curves[0].TradeDate.Equal(d2) {
		t.Fatalf("first curve date = %v", curves[0].TradeDate)
	}
	// Horizons kept sorted.
	second := curves[1]
	if len(second.Horizons) != 3 || second.Horizons[0] != 1 || second.Horizons[2] != 5 {
		t.Fatalf("horizons = %v", second.Horizons)
	}
	if second.Yields[5] != 6.4 {
		t.Fatalf("yields = %v", second.Yields)
	}
}

func TestCurveProcessorRoutesToStore(t *testing.T) {
	store := &memCurveStore{}
	p := NewCurveProcessor(nil, store, nopMetrics{}, "clickhouse", 100, time.Second)

	pt := &models.CurvePoint{TradeDate: time.Now(), Horizon: 3, Yield: 6.0}
	if err := p.Process(context.Background(), pt); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.points) != 1 {
		t.Fatalf("stored %d points", len(store.points))
	}

	if err := p.ProcessBatch(context.Background(), []*models.CurvePoint{pt, pt}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(store.points) != 3 {
		t.Fatalf("stored %d points", len(store.points))
	}
}

func TestCurveProcessorUnknownBackend(t *testing.T) {
	p := NewCurveProcessor(nil, &memCurveStore{}, nopMetrics{}, "postgres", 100, time.Second)
	pt := &models.CurvePoint{TradeDate: time.Now(), Horizon: 3, Yield: 6.0}
	if err := p.Process(context.Background(), pt); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
