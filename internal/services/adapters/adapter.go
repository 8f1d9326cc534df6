package adapters

import (
	"context"
	"fmt"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// Factory resolves architecture ids to adapters sharing one engine.
type Factory struct {
	engine tensor.Engine
}

func NewFactory(engine tensor.Engine) *Factory {
	return &Factory{engine: engine}
}

// For returns the adapter for the given architecture id.
func (f *Factory) For(architecture string) (service.ModelAdapter, error) {
	switch architecture {
	case models.ArchLSTM:
		return &LSTMAdapter{engine: f.engine}, nil
	case models.ArchRNN:
		return &RNNAdapter{engine: f.engine}, nil
	case models.ArchPatchTST:
		return &PatchTSTAdapter{engine: f.engine}, nil
	case models.ArchChronos:
		return &ChronosAdapter{engine: f.engine}, nil
	case models.ArchMamba:
		return &MambaAdapter{engine: f.engine}, nil
	default:
		return nil, fmt.Errorf("unknown architecture %q", architecture)
	}
}

// All returns one adapter per known architecture.
func (f *Factory) All() []service.ModelAdapter {
	out := make([]service.ModelAdapter, 0, len(models.Architectures()))
	for _, arch := range models.Architectures() {
		adapter, err := f.For(arch)
		if err != nil {
			continue
		}
		out = append(out, adapter)
	}
	return out
}

// recurrentDepth gates network depth on sample count and width so small
// datasets never carry deep stacks. Deterministic: same inputs always
// produce the same topology.
func recurrentDepth(samples, width int) int {
	switch {
	case samples > 100 && width >= 128:
		return 3
	case samples > 50 && width >= 64:
		return 2
	default:
		return 1
	}
}

// flatten converts windows into the engine's sequence/target layout,
// verifying every window matches the expected length.
func flatten(windows []models.Window, seqLen int) ([][]float64, []float64, error) {
	sequences := make([][]float64, 0, len(windows))
	targets := make([]float64, 0, len(windows))
	for _, w := range windows {
		if w.Length() != seqLen {
			return nil, nil, &models.ShapeMismatchError{Expected: seqLen, Got: w.Length()}
		}
		sequences = append(sequences, w.Values)
		targets = append(targets, w.Target)
	}
	return sequences, targets, nil
}

// fit runs the shared engine training path and wraps the result into a
// handle tagged with the adapter's architecture.
func fit(ctx context.Context, engine tensor.Engine, arch string, windows []models.Window, hp models.HyperparameterSet, cfg tensor.TrainConfig) (models.ModelHandle, error) {
	if len(windows) == 0 {
		return models.ModelHandle{}, &models.InsufficientDataError{Needed: 1, Got: 0}
	}
	sequences, targets, err := flatten(windows, hp.SequenceLength)
	if err != nil {
		return models.ModelHandle{}, err
	}

	result, err := engine.Fit(ctx, sequences, targets, cfg)
	if err != nil {
		return models.ModelHandle{}, fmt.Errorf("fit %s: %w", arch, err)
	}

	return models.ModelHandle{
		Architecture:   arch,
		SequenceLength: hp.SequenceLength,
		Payload:        result.Payload,
	}, nil
}

// predict runs the shared engine inference path, shape-checking every
// window against the handle's input length.
func predict(ctx context.Context, engine tensor.Engine, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	sequences := make([][]float64, 0, len(windows))
	for _, w := range windows {
		if w.Length() != handle.SequenceLength {
			return nil, &models.ShapeMismatchError{Expected: handle.SequenceLength, Got: w.Length()}
		}
		sequences = append(sequences, w.Values)
	}

	values, err := engine.Predict(ctx, handle.Payload, sequences)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", handle.Architecture, err)
	}
	if len(values) != len(windows) {
		return nil, &models.ShapeMismatchError{Expected: len(windows), Got: len(values)}
	}
	return values, nil
}
