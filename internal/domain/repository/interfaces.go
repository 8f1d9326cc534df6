package repository

import (
	"context"

	"StockCast/internal/domain/models"
)

// RunStore is the append-only TrainingRun log keyed by
// (architecture, run id), ordered by creation time. Injectable so
// tests seed history deterministically.
type RunStore interface {
	Append(ctx context.Context, run *models.TrainingRun) error
	List(ctx context.Context, architecture string) ([]*models.TrainingRun, error)
	Close() error
}

// VersionStore persists ModelVersions keyed by
// (architecture, version id). Versions are never deleted.
type VersionStore interface {
	Save(ctx context.Context, v *models.ModelVersion) error
	Update(ctx context.Context, v *models.ModelVersion) error
	List(ctx context.Context, architecture string) ([]*models.ModelVersion, error)
	Close() error
}

// ArtifactStore serializes trained artifacts keyed by
// (architecture, version id).
type ArtifactStore interface {
	Save(ctx context.Context, architecture, versionID string, artifact *models.Artifact) (ref string, err error)
	Load(ctx context.Context, ref string) (*models.Artifact, error)
}

// EventPublisher emits pipeline events for external consumers
// (dashboard backend, alerting). Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	PublishRun(ctx context.Context, run *models.TrainingRun) error
	PublishPromotion(ctx context.Context, v *models.ModelVersion, promoted bool) error
	Close() error
}

// PriceSource is the market-data collaborator. FetchHistory may fail
// with DataUnavailableError, which callers surface unchanged.
type PriceSource interface {
	FetchHistory(ctx context.Context, ticker, period string) ([]float64, error)
}

// PriceStream is a live tick feed from the market-data provider.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordRunStarted(architecture string)
	RecordRunCompleted(architecture string, outcome models.RunOutcome)
	RecordPromotion(architecture string, promoted bool)
	RecordPromotedAccuracy(architecture string, accuracy float64)
	RecordForecast(architecture string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
