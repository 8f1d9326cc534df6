package adapters

import (
	"context"
	"errors"
	"testing"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/tensor"
)

// fakeEngine records the config it was fitted with and echoes canned
// predictions.
type fakeEngine struct {
	lastCfg     tensor.TrainConfig
	fitCalls    int
	predictions []float64
	fitErr      error
}

func (f *fakeEngine) Fit(ctx context.Context, sequences [][]float64, targets []float64, cfg tensor.TrainConfig) (*tensor.FitResult, error) {
	f.fitCalls++
	f.lastCfg = cfg
	if f.fitErr != nil {
		return nil, f.fitErr
	}
	return &tensor.FitResult{Payload: []byte("model-1"), FinalLoss: 0.01}, nil
}

func (f *fakeEngine) Predict(ctx context.Context, payload []byte, sequences [][]float64) ([]float64, error) {
	if f.predictions != nil {
		return f.predictions, nil
	}
	out := make([]float64, len(sequences))
	for i := range sequences {
		out[i] = sequences[i][len(sequences[i])-1]
	}
	return out, nil
}

func makeWindows(n, length int) []models.Window {
	windows := make([]models.Window, n)
	for i := range windows {
		values := make([]float64, length)
		for j := range values {
			values[j] = float64(i + j)
		}
		windows[i] = models.Window{Values: values, Target: float64(i + length)}
	}
	return windows
}

func defaultHP(arch string, seqLen, width int) models.HyperparameterSet {
	return models.HyperparameterSet{
		Architecture:   arch,
		SequenceLength: seqLen,
		HiddenWidth:    width,
		Dropout:        0.2,
		LearningRate:   0.001,
		Epochs:         5,
		BatchSize:      32,
	}
}

func TestFactoryKnownArchitectures(t *testing.T) {
	factory := NewFactory(&fakeEngine{})
	for _, arch := range models.Architectures() {
		adapter, err := factory.For(arch)
		if err != nil {
			t.Fatalf("For(%q): %v", arch, err)
		}
		if adapter.Architecture() != arch {
			t.Errorf("adapter id = %q, want %q", adapter.Architecture(), arch)
		}
	}
}

func TestFactoryUnknownArchitecture(t *testing.T) {
	factory := NewFactory(&fakeEngine{})
	if _, err := factory.For("prophet"); err == nil {
		t.Fatal("expected error for unknown architecture")
	}
}

func TestRecurrentDepthGating(t *testing.T) {
	cases := []struct {
		samples, width, want int
	}{
		{150, 128, 3},
		{150, 64, 2},
		{60, 64, 2},
		{60, 32, 1},
		{40, 256, 1},
		{101, 128, 3},
		{100, 128, 2},
	}
	for _, tc := range cases {
		if got := recurrentDepth(tc.samples, tc.width); got != tc.want {
			t.Errorf("recurrentDepth(%d, %d) = %d, want %d", tc.samples, tc.width, got, tc.want)
		}
	}
}

func TestLSTMFitUsesGatedDepth(t *testing.T) {
	engine := &fakeEngine{}
	adapter := &LSTMAdapter{engine: engine}

	handle, err := adapter.Fit(context.Background(), makeWindows(150, 10), defaultHP(models.ArchLSTM, 10, 128))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if engine.lastCfg.Layers != 3 {
		t.Errorf("layers = %d, want 3", engine.lastCfg.Layers)
	}
	if handle.Architecture != models.ArchLSTM || handle.SequenceLength != 10 {
		t.Errorf("handle = %+v", handle)
	}
	if handle.Frozen {
		t.Error("lstm handle must not be frozen")
	}
}

func TestRNNDepthOneTierShallower(t *testing.T) {
	engine := &fakeEngine{}
	adapter := &RNNAdapter{engine: engine}

	if _, err := adapter.Fit(context.Background(), makeWindows(150, 10), defaultHP(models.ArchRNN, 10, 128)); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if engine.lastCfg.Layers != 2 {
		t.Errorf("layers = %d, want 2", engine.lastCfg.Layers)
	}

	if _, err := adapter.Fit(context.Background(), makeWindows(40, 10), defaultHP(models.ArchRNN, 10, 32)); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if engine.lastCfg.Layers != 1 {
		t.Errorf("layers = %d, want 1", engine.lastCfg.Layers)
	}
}

func TestPatchLength(t *testing.T) {
	cases := []struct{ seqLen, want int }{
		{60, 12},
		{64, 16},
		{96, 16},
		{30, 10},
		{7, 1},
		{25, 5},
	}
	for _, tc := range cases {
		if got := patchLength(tc.seqLen); got != tc.want {
			t.Errorf("patchLength(%d) = %d, want %d", tc.seqLen, got, tc.want)
		}
	}
}

func TestPatchTSTFitSetsPatchLength(t *testing.T) {
	engine := &fakeEngine{}
	adapter := &PatchTSTAdapter{engine: engine}

	if _, err := adapter.Fit(context.Background(), makeWindows(20, 60), defaultHP(models.ArchPatchTST, 60, 64)); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if engine.lastCfg.PatchLength != 12 {
		t.Errorf("patch length = %d, want 12", engine.lastCfg.PatchLength)
	}
}

func TestChronosFitIsNoOp(t *testing.T) {
	engine := &fakeEngine{}
	adapter := &ChronosAdapter{engine: engine}

	handle, err := adapter.Fit(context.Background(), makeWindows(20, 10), defaultHP(models.ArchChronos, 10, 64))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if engine.fitCalls != 0 {
		t.Errorf("engine fit called %d times, want 0", engine.fitCalls)
	}
	if !handle.Frozen {
		t.Error("chronos handle must be frozen")
	}

	preds, err := adapter.Predict(context.Background(), handle, makeWindows(3, 10))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 3 {
		t.Errorf("got %d predictions, want 3", len(preds))
	}
}

func TestMambaSupportsStreaming(t *testing.T) {
	factory := NewFactory(&fakeEngine{})
	for _, arch := range models.Architectures() {
		adapter, err := factory.For(arch)
		if err != nil {
			t.Fatalf("For(%q): %v", arch, err)
		}
		want := arch == models.ArchMamba
		if adapter.SupportsStreaming() != want {
			t.Errorf("%s SupportsStreaming = %v, want %v", arch, adapter.SupportsStreaming(), want)
		}
	}
}

func TestFitShapeMismatch(t *testing.T) {
	adapter := &LSTMAdapter{engine: &fakeEngine{}}
	windows := makeWindows(10, 10)
	windows[4].Values = windows[4].Values[:7]

	_, err := adapter.Fit(context.Background(), windows, defaultHP(models.ArchLSTM, 10, 64))
	var shapeErr *models.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want ShapeMismatchError", err)
	}
	if shapeErr.Expected != 10 || shapeErr.Got != 7 {
		t.Errorf("shape error = %+v", shapeErr)
	}
}

func TestPredictShapeMismatch(t *testing.T) {
	engine := &fakeEngine{}
	adapter := &LSTMAdapter{engine: engine}

	handle, err := adapter.Fit(context.Background(), makeWindows(10, 10), defaultHP(models.ArchLSTM, 10, 64))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	_, err = adapter.Predict(context.Background(), handle, makeWindows(2, 12))
	var shapeErr *models.ShapeMismatchError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want ShapeMismatchError", err)
	}
}

func TestFitPropagatesDivergence(t *testing.T) {
	engine := &fakeEngine{fitErr: &models.TrainingDivergedError{Architecture: models.ArchLSTM}}
	adapter := &LSTMAdapter{engine: engine}

	_, err := adapter.Fit(context.Background(), makeWindows(10, 10), defaultHP(models.ArchLSTM, 10, 64))
	var divErr *models.TrainingDivergedError
	if !errors.As(err, &divErr) {
		t.Fatalf("err = %v, want TrainingDivergedError", err)
	}
}

func TestFitEmptyWindows(t *testing.T) {
	adapter := &LSTMAdapter{engine: &fakeEngine{}}
	_, err := adapter.Fit(context.Background(), nil, defaultHP(models.ArchLSTM, 10, 64))
	var insufErr *models.InsufficientDataError
	if !errors.As(err, &insufErr) {
		t.Fatalf("err = %v, want InsufficientDataError", err)
	}
}
