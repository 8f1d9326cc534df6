package adapters

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// RNNAdapter trains a simple recurrent network. Same depth gating as
// the gated variant, one tier shallower.
type RNNAdapter struct {
	engine tensor.Engine
}

func (a *RNNAdapter) Architecture() string { return models.ArchRNN }

func (a *RNNAdapter) Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error) {
	layers := recurrentDepth(len(windows), hp.HiddenWidth) - 1
	if layers < 1 {
		layers = 1
	}
	cfg := tensor.TrainConfig{
		Architecture:   models.ArchRNN,
		SequenceLength: hp.SequenceLength,
		Layers:         layers,
		HiddenWidth:    hp.HiddenWidth,
		Dropout:        hp.Dropout,
		LearningRate:   hp.LearningRate,
		Epochs:         hp.Epochs,
		BatchSize:      hp.BatchSize,
	}
	return fit(ctx, a.engine, models.ArchRNN, windows, hp, cfg)
}

func (a *RNNAdapter) Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	return predict(ctx, a.engine, handle, windows)
}

func (a *RNNAdapter) SupportsStreaming() bool { return false }

var _ service.ModelAdapter = (*RNNAdapter)(nil)
