package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
)

// MemoryRunStore is the in-process TrainingRun log. Default store when
// ClickHouse is disabled; also what tests seed.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string][]*models.TrainingRun // keyed by architecture
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string][]*models.TrainingRun)}
}

func (s *MemoryRunStore) Append(ctx context.Context, run *models.TrainingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.Architecture] = append(s.runs[run.Architecture], &cp)
	return nil
}

func (s *MemoryRunStore) List(ctx context.Context, architecture string) ([]*models.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.runs[architecture]
	out := make([]*models.TrainingRun, len(stored))
	for i, run := range stored {
		cp := *run
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *MemoryRunStore) Close() error { return nil }

// MemoryVersionStore keeps ModelVersions in process. Versions are
// never deleted, only appended and updated in place.
type MemoryVersionStore struct {
	mu       sync.RWMutex
	versions map[string][]*models.ModelVersion // keyed by architecture
}

func NewMemoryVersionStore() *MemoryVersionStore {
	return &MemoryVersionStore{versions: make(map[string][]*models.ModelVersion)}
}

func (s *MemoryVersionStore) Save(ctx context.Context, v *models.ModelVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.versions[v.Architecture] = append(s.versions[v.Architecture], &cp)
	return nil
}

func (s *MemoryVersionStore) Update(ctx context.Context, v *models.ModelVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, stored := range s.versions[v.Architecture] {
		if stored.ID == v.ID {
			cp := *v
			s.versions[v.Architecture][i] = &cp
			return nil
		}
	}
	return fmt.Errorf("version %s not found", v.ID)
}

func (s *MemoryVersionStore) List(ctx context.Context, architecture string) ([]*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.versions[architecture]
	out := make([]*models.ModelVersion, len(stored))
	for i, v := range stored {
		cp := *v
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryVersionStore) Close() error { return nil }

var (
	_ repository.RunStore     = (*MemoryRunStore)(nil)
	_ repository.VersionStore = (*MemoryVersionStore)(nil)
)
