package adapters

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// patchCandidates are tried largest-first; the window length must be
// divisible into whole patches.
var patchCandidates = []int{16, 12, 10, 8, 6, 5, 4, 3, 2, 1}

// PatchTSTAdapter trains a patch-attention transformer. The input
// window is segmented into equal patches before attention.
type PatchTSTAdapter struct {
	engine tensor.Engine
}

func (a *PatchTSTAdapter) Architecture() string { return models.ArchPatchTST }

// patchLength picks the largest candidate evenly dividing the window.
// Falls back to 1, which always divides.
func patchLength(seqLen int) int {
	for _, p := range patchCandidates {
		if seqLen%p == 0 {
			return p
		}
	}
	return 1
}

func (a *PatchTSTAdapter) Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error) {
	cfg := tensor.TrainConfig{
		Architecture:   models.ArchPatchTST,
		SequenceLength: hp.SequenceLength,
		Layers:         2,
		HiddenWidth:    hp.HiddenWidth,
		Dropout:        hp.Dropout,
		LearningRate:   hp.LearningRate,
		Epochs:         hp.Epochs,
		BatchSize:      hp.BatchSize,
		PatchLength:    patchLength(hp.SequenceLength),
	}
	return fit(ctx, a.engine, models.ArchPatchTST, windows, hp, cfg)
}

func (a *PatchTSTAdapter) Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	return predict(ctx, a.engine, handle, windows)
}

func (a *PatchTSTAdapter) SupportsStreaming() bool { return false }

var _ service.ModelAdapter = (*PatchTSTAdapter)(nil)
