package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/repository"
	"StockCast/pkg/logger"
)

type noopPublisher struct{}

func (noopPublisher) PublishRun(ctx context.Context, run *models.TrainingRun) error { return nil }
func (noopPublisher) PublishPromotion(ctx context.Context, v *models.ModelVersion, promoted bool) error {
	return nil
}
func (noopPublisher) Close() error { return nil }

type recordingMetrics struct {
	mu         sync.Mutex
	promotions map[bool]int
}

func (m *recordingMetrics) RecordRunStarted(string)                       {}
func (m *recordingMetrics) RecordRunCompleted(string, models.RunOutcome)  {}
func (m *recordingMetrics) RecordPromotedAccuracy(string, float64)        {}
func (m *recordingMetrics) RecordForecast(string)                         {}
func (m *recordingMetrics) RecordError(string)                            {}
func (m *recordingMetrics) RecordLatency(string, float64)                 {}
func (m *recordingMetrics) RecordPromotion(arch string, promoted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promotions == nil {
		m.promotions = make(map[bool]int)
	}
	m.promotions[promoted]++
}

type failingArtifacts struct{}

func (failingArtifacts) Save(ctx context.Context, architecture, versionID string, artifact *models.Artifact) (string, error) {
	return "", fmt.Errorf("disk full")
}
func (failingArtifacts) Load(ctx context.Context, ref string) (*models.Artifact, error) {
	return nil, fmt.Errorf("disk full")
}

func testRegistry(t *testing.T) (*Registry, *repository.MemoryVersionStore, *recordingMetrics) {
	t.Helper()
	artifacts, err := repository.NewFileArtifactStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}
	versions := repository.NewMemoryVersionStore()
	metrics := &recordingMetrics{}
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	return New(versions, artifacts, noopPublisher{}, metrics, log), versions, metrics
}

func run(arch string, accuracy float64) *models.TrainingRun {
	return &models.TrainingRun{
		ID:           fmt.Sprintf("run-%s-%v", arch, accuracy),
		Architecture: arch,
		Ticker:       "AAPL",
		StartedAt:    time.Now(),
		Metrics:      &models.MetricSnapshot{ToleranceAccuracy: accuracy},
		Outcome:      models.RunCompleted,
	}
}

func artifact(arch string) *models.Artifact {
	return &models.Artifact{
		Handle: models.ModelHandle{Architecture: arch, SequenceLength: 60, Payload: []byte("m")},
		Scale:  models.ScaleParams{Min: 10, Max: 200},
	}
}

func TestFirstCandidatePromoted(t *testing.T) {
	reg, _, _ := testRegistry(t)

	v, promoted, err := reg.Submit(context.Background(), run(models.ArchLSTM, 60), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !promoted || v.State != models.VersionPromoted {
		t.Errorf("first candidate: promoted=%v state=%s", promoted, v.State)
	}
	if cur := reg.Current(models.ArchLSTM); cur == nil || cur.ID != v.ID {
		t.Errorf("Current = %+v, want %s", cur, v.ID)
	}
}

func TestStrictlyBetterReplaces(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	first, _, err := reg.Submit(ctx, run(models.ArchLSTM, 60), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, promoted, err := reg.Submit(ctx, run(models.ArchLSTM, 65), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !promoted {
		t.Fatal("strictly better candidate not promoted")
	}
	if cur := reg.Current(models.ArchLSTM); cur.ID != second.ID {
		t.Errorf("Current = %s, want %s", cur.ID, second.ID)
	}
	_ = first
}

func TestTieKeepsIncumbent(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	incumbent, _, _ := reg.Submit(ctx, run(models.ArchLSTM, 60), artifact(models.ArchLSTM))

	tied, promoted, err := reg.Submit(ctx, run(models.ArchLSTM, 60), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if promoted {
		t.Error("tied candidate promoted, incumbent should win ties")
	}
	if tied.State != models.VersionRejected {
		t.Errorf("tied state = %s, want rejected", tied.State)
	}
	if cur := reg.Current(models.ArchLSTM); cur.ID != incumbent.ID {
		t.Errorf("Current = %s, want incumbent %s", cur.ID, incumbent.ID)
	}
}

func TestWorseRejected(t *testing.T) {
	reg, versions, _ := testRegistry(t)
	ctx := context.Background()

	reg.Submit(ctx, run(models.ArchLSTM, 70), artifact(models.ArchLSTM))
	worse, promoted, err := reg.Submit(ctx, run(models.ArchLSTM, 50), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if promoted || worse.State != models.VersionRejected {
		t.Errorf("worse candidate: promoted=%v state=%s", promoted, worse.State)
	}

	// Rejected versions are kept, never deleted.
	listed, err := versions.List(ctx, models.ArchLSTM)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("version count = %d, want 2", len(listed))
	}
}

func TestPromotedAccuracyMonotonic(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	accuracies := []float64{50, 48, 55, 55, 53, 61, 60}
	last := -1.0
	for _, acc := range accuracies {
		reg.Submit(ctx, run(models.ArchRNN, acc), artifact(models.ArchRNN))
		cur := reg.Current(models.ArchRNN)
		if cur == nil {
			t.Fatal("no promoted version")
		}
		if cur.Metrics.ToleranceAccuracy < last {
			t.Errorf("promoted accuracy dropped from %v to %v", last, cur.Metrics.ToleranceAccuracy)
		}
		last = cur.Metrics.ToleranceAccuracy
	}
	if last != 61 {
		t.Errorf("final accuracy = %v, want 61", last)
	}
}

func TestArchitecturesIsolated(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	reg.Submit(ctx, run(models.ArchLSTM, 70), artifact(models.ArchLSTM))
	_, promoted, err := reg.Submit(ctx, run(models.ArchRNN, 40), artifact(models.ArchRNN))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !promoted {
		t.Error("first rnn candidate should promote regardless of lstm incumbent")
	}
}

func TestArtifactFailureMarksRunFailed(t *testing.T) {
	versions := repository.NewMemoryVersionStore()
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	reg := New(versions, failingArtifacts{}, noopPublisher{}, &recordingMetrics{}, log)

	r := run(models.ArchLSTM, 60)
	_, _, err := reg.Submit(context.Background(), r, artifact(models.ArchLSTM))
	if err == nil {
		t.Fatal("expected error from failing artifact store")
	}
	if r.Outcome != models.RunFailed {
		t.Errorf("run outcome = %s, want failed", r.Outcome)
	}
	listed, _ := versions.List(context.Background(), models.ArchLSTM)
	if len(listed) != 0 {
		t.Errorf("version registered despite artifact failure: %d", len(listed))
	}
}

func TestConcurrentSubmitSinglePromoted(t *testing.T) {
	reg, versions, _ := testRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(acc float64) {
			defer wg.Done()
			reg.Submit(ctx, run(models.ArchMamba, acc), artifact(models.ArchMamba))
		}(50 + float64(i))
	}
	wg.Wait()

	listed, err := versions.List(ctx, models.ArchMamba)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	promoted := 0
	for _, v := range listed {
		if v.Promoted {
			promoted++
		}
	}
	if promoted != 1 {
		t.Errorf("promoted flags = %d, want exactly 1", promoted)
	}
	cur := reg.Current(models.ArchMamba)
	if cur == nil || cur.Metrics.ToleranceAccuracy != 65 {
		t.Errorf("Current = %+v, want accuracy 65", cur)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	v, _, err := reg.Submit(ctx, run(models.ArchLSTM, 60), artifact(models.ArchLSTM))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	loaded, err := reg.LoadArtifact(ctx, v)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if loaded.Handle.Architecture != models.ArchLSTM || loaded.Scale.Max != 200 {
		t.Errorf("loaded artifact = %+v", loaded)
	}
}

func TestRestoreRebuildsCurrent(t *testing.T) {
	reg, versions, _ := testRegistry(t)
	ctx := context.Background()

	v, _, _ := reg.Submit(ctx, run(models.ArchLSTM, 60), artifact(models.ArchLSTM))

	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	fresh := New(versions, failingArtifacts{}, noopPublisher{}, &recordingMetrics{}, log)
	if err := fresh.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	cur := fresh.Current(models.ArchLSTM)
	if cur == nil || cur.ID != v.ID {
		t.Errorf("restored Current = %+v, want %s", cur, v.ID)
	}
}
