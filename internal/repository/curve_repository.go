package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BondPulse/internal/domain/models"
	"BondPulse/internal/domain/repository"
	pkgkafka "BondPulse/pkg/kafka"
)

// ClickHouseCurveStore implements CurveStore for ClickHouse.
type ClickHouseCurveStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseCurveStore creates ClickHouse curve storage.
func NewClickHouseCurveStore(db *sql.DB, table string) repository.CurveStore {
	return &ClickHouseCurveStore{db: db, table: table}
}

func (s *ClickHouseCurveStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseCurveStore) Store(ctx context.Context, p *models.CurvePoint) error {
	q := fmt.Sprintf("INSERT INTO %s (trade_date, horizon_years, yield_pct) VALUES (?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, p.TradeDate, p.Horizon, p.Yield)
	return err
}

func (s *ClickHouseCurveStore) StoreBatch(ctx context.Context, points []*models.CurvePoint) error {
	if len(points) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, p := range points[start:end] {
			if p == nil || p.TradeDate.IsZero() || p.Horizon <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, p.TradeDate, p.Horizon, p.Yield)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (trade_date, horizon_years, yield_pct) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseCurveStore) Query(ctx context.Context, from, to time.Time, limit int) ([]*models.CurvePoint, error) {
	q := fmt.Sprintf("SELECT trade_date, horizon_years, yield_pct FROM %s WHERE trade_date >= ? AND trade_date <= ? ORDER BY trade_date DESC, horizon_years ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*models.CurvePoint
	for rows.Next() {
		var p models.CurvePoint
		if err := rows.Scan(&p.TradeDate, &p.Horizon, &p.Yield); err != nil {
			return nil, err
		}
		points = append(points, &p)
	}
	return points, rows.Err()
}

func (s *ClickHouseCurveStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseCurveStore) Close() error {
	return nil // Managed by pkg
}

// KafkaCurvePublisher implements CurvePublisher for Kafka.
type KafkaCurvePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaCurvePublisher creates Kafka publisher.
func NewKafkaCurvePublisher(producer *pkgkafka.Producer, topic string) repository.CurvePublisher {
	return &KafkaCurvePublisher{producer: producer, topic: topic}
}

func (p *KafkaCurvePublisher) Publish(ctx context.Context, pt *models.CurvePoint) error {
	return p.producer.Publish(ctx, p.topic, curveKey(pt), pt)
}

func (p *KafkaCurvePublisher) PublishBatch(ctx context.Context, points []*models.CurvePoint) error {
	if len(points) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(points))
	for i, pt := range points {
		msgs[i] = pkgkafka.Message{
			Key:   curveKey(pt),
			Value: pt,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCurvePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// curveKey partitions curve points by trade date so one day's curve lands on
// one partition in order.
func curveKey(p *models.CurvePoint) []byte {
	return []byte(p.TradeDate.Format("2006-01-02"))
}
