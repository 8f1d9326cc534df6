package adapters

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// MambaAdapter trains a state-space sequence model. Its recurrent
// state makes per-tick incremental inference cheap, so it is the only
// adapter that reports streaming support.
type MambaAdapter struct {
	engine tensor.Engine
}

func (a *MambaAdapter) Architecture() string { return models.ArchMamba }

func (a *MambaAdapter) Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error) {
	cfg := tensor.TrainConfig{
		Architecture:   models.ArchMamba,
		SequenceLength: hp.SequenceLength,
		Layers:         2,
		HiddenWidth:    hp.HiddenWidth,
		Dropout:        hp.Dropout,
		LearningRate:   hp.LearningRate,
		Epochs:         hp.Epochs,
		BatchSize:      hp.BatchSize,
	}
	return fit(ctx, a.engine, models.ArchMamba, windows, hp, cfg)
}

func (a *MambaAdapter) Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	return predict(ctx, a.engine, handle, windows)
}

func (a *MambaAdapter) SupportsStreaming() bool { return true }

var _ service.ModelAdapter = (*MambaAdapter)(nil)
