package adapters

import (
	"context"
	"encoding/json"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/tensor"
)

// ChronosAdapter wraps a pretrained zero-shot forecaster. Fit never
// touches the weights: it validates the windows and returns a frozen
// handle carrying only the inference configuration.
type ChronosAdapter struct {
	engine tensor.Engine
}

type chronosHandle struct {
	SequenceLength int `json:"sequence_length"`
}

func (a *ChronosAdapter) Architecture() string { return models.ArchChronos }

func (a *ChronosAdapter) Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error) {
	if len(windows) == 0 {
		return models.ModelHandle{}, &models.InsufficientDataError{Needed: 1, Got: 0}
	}
	if _, _, err := flatten(windows, hp.SequenceLength); err != nil {
		return models.ModelHandle{}, err
	}

	payload, err := json.Marshal(chronosHandle{SequenceLength: hp.SequenceLength})
	if err != nil {
		return models.ModelHandle{}, err
	}
	return models.ModelHandle{
		Architecture:   models.ArchChronos,
		SequenceLength: hp.SequenceLength,
		Frozen:         true,
		Payload:        payload,
	}, nil
}

func (a *ChronosAdapter) Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error) {
	return predict(ctx, a.engine, handle, windows)
}

func (a *ChronosAdapter) SupportsStreaming() bool { return false }

var _ service.ModelAdapter = (*ChronosAdapter)(nil)
