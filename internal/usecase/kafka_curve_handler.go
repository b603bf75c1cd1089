package usecase

import (
	"context"
	"encoding/json"
	"time"

	"BondPulse/internal/domain/models"
	domrepo "BondPulse/internal/domain/repository"
	pkgkafka "BondPulse/pkg/kafka"
)

// KafkaCurveHandler consumes curve points from Kafka and writes to storage.
type KafkaCurveHandler struct {
	topic   string
	storage domrepo.CurveStore
	metrics domrepo.Metrics
}

func NewKafkaCurveHandler(topic string, storage domrepo.CurveStore, metrics domrepo.Metrics) *KafkaCurveHandler {
	return &KafkaCurveHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaCurveHandler) Topic() string { return h.topic }

func (h *KafkaCurveHandler) Handle(ctx context.Context, b []byte) error {
	var p models.CurvePoint
	if err := json.Unmarshal(b, &p); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if p.TradeDate.IsZero() || p.Horizon <= 0 {
		h.metrics.RecordError("consumer_invalid")
		return nil // malformed point, nothing to retry
	}

	start := time.Now()
	err := h.storage.Store(ctx, &p)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", tenorLabel(p.Horizon))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCurveHandler)(nil)
