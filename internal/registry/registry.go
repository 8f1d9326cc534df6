package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/pkg/logger"
)

// Registry owns the model version lifecycle: candidates come in with
// metrics, at most one version per architecture is promoted, and a
// promoted version is only ever displaced by a strictly better one.
type Registry struct {
	versions  repository.VersionStore
	artifacts repository.ArtifactStore
	events    repository.EventPublisher
	metrics   repository.Metrics
	log       *logger.Logger

	mu      sync.Mutex
	arches  map[string]*sync.Mutex       // promotion lock per architecture
	current map[string]*models.ModelVersion // promoted version per architecture
}

func New(versions repository.VersionStore, artifacts repository.ArtifactStore, events repository.EventPublisher, metrics repository.Metrics, log *logger.Logger) *Registry {
	return &Registry{
		versions:  versions,
		artifacts: artifacts,
		events:    events,
		metrics:   metrics,
		log:       log,
		arches:    make(map[string]*sync.Mutex),
		current:   make(map[string]*models.ModelVersion),
	}
}

// Restore rebuilds the promoted-version index from the store, for use
// at startup when the version store is durable.
func (r *Registry) Restore(ctx context.Context) error {
	for _, arch := range models.Architectures() {
		versions, err := r.versions.List(ctx, arch)
		if err != nil {
			return fmt.Errorf("list %s versions: %w", arch, err)
		}
		for _, v := range versions {
			if v.State == models.VersionPromoted && v.Promoted {
				r.mu.Lock()
				r.current[arch] = v
				r.mu.Unlock()
			}
		}
	}
	return nil
}

// archLock returns the promotion mutex for one architecture; promotion
// decisions for different architectures never contend.
func (r *Registry) archLock(architecture string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.arches[architecture]
	if !ok {
		lock = &sync.Mutex{}
		r.arches[architecture] = lock
	}
	return lock
}

// Submit persists the run's artifact, registers a candidate version,
// and decides promotion against the incumbent. If the artifact cannot
// be serialized the run is marked Failed and no version exists.
// Returns the version and whether it was promoted.
func (r *Registry) Submit(ctx context.Context, run *models.TrainingRun, artifact *models.Artifact) (*models.ModelVersion, bool, error) {
	if run.Metrics == nil {
		return nil, false, fmt.Errorf("run %s has no metrics", run.ID)
	}

	version := &models.ModelVersion{
		ID:           uuid.NewString(),
		Architecture: run.Architecture,
		Ticker:       run.Ticker,
		RunID:        run.ID,
		Metrics:      *run.Metrics,
		State:        models.VersionCandidate,
		CreatedAt:    time.Now().UTC(),
	}

	ref, err := r.artifacts.Save(ctx, run.Architecture, version.ID, artifact)
	if err != nil {
		run.Outcome = models.RunFailed
		run.Error = fmt.Sprintf("artifact save: %v", err)
		return nil, false, fmt.Errorf("save artifact: %w", err)
	}
	version.ArtifactRef = ref

	if err := r.versions.Save(ctx, version); err != nil {
		return nil, false, fmt.Errorf("save version: %w", err)
	}

	promoted, err := r.promote(ctx, version)
	if err != nil {
		return version, false, err
	}

	run.VersionID = version.ID
	run.Promoted = promoted
	return version, promoted, nil
}

// promote applies the safe-promotion rule under the architecture lock:
// the candidate wins only with strictly greater tolerance accuracy
// than the incumbent. Ties keep the incumbent.
func (r *Registry) promote(ctx context.Context, candidate *models.ModelVersion) (bool, error) {
	lock := r.archLock(candidate.Architecture)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	incumbent := r.current[candidate.Architecture]
	r.mu.Unlock()

	if incumbent != nil && candidate.Metrics.ToleranceAccuracy <= incumbent.Metrics.ToleranceAccuracy {
		candidate.State = models.VersionRejected
		if err := r.versions.Update(ctx, candidate); err != nil {
			return false, fmt.Errorf("update rejected version: %w", err)
		}
		r.metrics.RecordPromotion(candidate.Architecture, false)
		r.publishDecision(ctx, candidate, false)
		r.log.Info("candidate rejected",
			logger.String("architecture", candidate.Architecture),
			logger.String("version", candidate.ID),
			logger.Float64("candidate_accuracy", candidate.Metrics.ToleranceAccuracy),
			logger.Float64("incumbent_accuracy", incumbent.Metrics.ToleranceAccuracy))
		return false, nil
	}

	candidate.State = models.VersionPromoted
	candidate.Promoted = true
	if err := r.versions.Update(ctx, candidate); err != nil {
		return false, fmt.Errorf("update promoted version: %w", err)
	}

	if incumbent != nil {
		demoted := *incumbent
		demoted.Promoted = false
		if err := r.versions.Update(ctx, &demoted); err != nil {
			return false, fmt.Errorf("demote incumbent: %w", err)
		}
	}

	r.mu.Lock()
	r.current[candidate.Architecture] = candidate
	r.mu.Unlock()

	r.metrics.RecordPromotion(candidate.Architecture, true)
	r.metrics.RecordPromotedAccuracy(candidate.Architecture, candidate.Metrics.ToleranceAccuracy)
	r.publishDecision(ctx, candidate, true)
	r.log.Info("candidate promoted",
		logger.String("architecture", candidate.Architecture),
		logger.String("version", candidate.ID),
		logger.Float64("accuracy", candidate.Metrics.ToleranceAccuracy))
	return true, nil
}

func (r *Registry) publishDecision(ctx context.Context, v *models.ModelVersion, promoted bool) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishPromotion(ctx, v, promoted); err != nil {
		r.log.Warn("publish promotion", logger.Error(err))
	}
}

// Current returns the promoted version for the architecture, or nil
// when none has ever been promoted.
func (r *Registry) Current(architecture string) *models.ModelVersion {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v := r.current[architecture]; v != nil {
		cp := *v
		return &cp
	}
	return nil
}

// List returns every version for the architecture in creation order.
func (r *Registry) List(ctx context.Context, architecture string) ([]*models.ModelVersion, error) {
	return r.versions.List(ctx, architecture)
}

// LoadArtifact resolves a version's serialized artifact.
func (r *Registry) LoadArtifact(ctx context.Context, v *models.ModelVersion) (*models.Artifact, error) {
	artifact, err := r.artifacts.Load(ctx, v.ArtifactRef)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", v.ArtifactRef, err)
	}
	return artifact, nil
}
