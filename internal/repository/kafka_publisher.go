package repository

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// Default topics for pipeline events.
const (
	TopicRuns       = "stockcast.runs"
	TopicPromotions = "stockcast.promotions"
)

// KafkaPublisher streams run completions and promotion decisions to
// Kafka for external consumers.
type KafkaPublisher struct {
	producer        *pkgkafka.Producer
	runsTopic       string
	promotionsTopic string
}

type promotionEvent struct {
	Version   *models.ModelVersion `json:"version"`
	Promoted  bool                 `json:"promoted"`
	EmittedAt time.Time            `json:"emitted_at"`
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(brokers),
		pkgkafka.WithCompression("snappy"),
		pkgkafka.WithRequiredAcks(1),
		pkgkafka.WithBatchTimeout(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return &KafkaPublisher{
		producer:        producer,
		runsTopic:       TopicRuns,
		promotionsTopic: TopicPromotions,
	}, nil
}

func (p *KafkaPublisher) PublishRun(ctx context.Context, run *models.TrainingRun) error {
	if err := p.producer.Publish(ctx, p.runsTopic, []byte(run.Architecture), run); err != nil {
		return fmt.Errorf("publish run: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) PublishPromotion(ctx context.Context, v *models.ModelVersion, promoted bool) error {
	event := promotionEvent{Version: v, Promoted: promoted, EmittedAt: time.Now().UTC()}
	if err := p.producer.Publish(ctx, p.promotionsTopic, []byte(v.Architecture), event); err != nil {
		return fmt.Errorf("publish promotion: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRun(ctx context.Context, run *models.TrainingRun) error { return nil }
func (NoopPublisher) PublishPromotion(ctx context.Context, v *models.ModelVersion, promoted bool) error {
	return nil
}
func (NoopPublisher) Close() error { return nil }

var (
	_ repository.EventPublisher = (*KafkaPublisher)(nil)
	_ repository.EventPublisher = NoopPublisher{}
)
