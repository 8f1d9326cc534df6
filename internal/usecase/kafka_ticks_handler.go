package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	mid "StockCast/internal/middleware"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaTicksHandler is the alternative tick ingress: deployments that
// already fan prices out over Kafka feed the same pipeline the
// WebSocket collector does.
type KafkaTicksHandler struct {
	topic   string
	pipe    *mid.TickPipeline
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, pipe *mid.TickPipeline, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, pipe: pipe, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	return h.pipe.Process(ctx, &models.Tick{
		Ticker:    m.Symbol,
		Price:     m.C,
		Timestamp: m.T,
	})
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
