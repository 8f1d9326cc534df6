package adapters

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// LSTMAdapter trains a memory-gated recurrent network. Depth scales
// with the amount of training data available.
type LSTMAdapter struct {
	engine tensor.Engine
}

func (a *LSTMAdapter) Architecture() string { return models.ArchLSTM }

func (a *LSTMAdapter) Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error) {
	cfg := tensor.TrainConfig{
		Architecture:   models.ArchLSTM,
		SequenceLength: hp.SequenceLength,
		Layers:         recurrentDepth(len(windows), hp.HiddenWidth),
		HiddenWidth:    hp.HiddenWidth,
		Dropout:        hp.Dropout,
		LearningRate:   hp.LearningRate,
		Epochs:         hp.Epochs,
		BatchSize:      hp.BatchSize,
	}
	return fit(ctx, a.engine, models.ArchLSTM, windows, hp, cfg)
}

func (a *LSTMAdapter) Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	return predict(ctx, a.engine, handle, windows)
}

func (a *LSTMAdapter) SupportsStreaming() bool { return false }

var _ service.ModelAdapter = (*LSTMAdapter)(nil)
