package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// ModelAdapter is the uniform contract over heterogeneous forecasting
// architectures. Callers never branch on architecture type: every
// variant is a self-contained implementation of this capability set.
type ModelAdapter interface {
	Architecture() string
	Fit(ctx context.Context, windows []models.Window, hp models.HyperparameterSet) (models.ModelHandle, error)
	Predict(ctx context.Context, handle models.ModelHandle, windows []models.Window) ([]float64, error)
	SupportsStreaming() bool
}

// Suggester chooses hyperparameters for the next run from the outcomes
// of prior runs. Explicit caller-supplied sets always win over
// suggestions; orchestrators must not call Suggest when one is given.
type Suggester interface {
	Suggest(ctx context.Context, architecture string, dataSize int) (models.HyperparameterSet, error)
	PerturbForRetry(hp models.HyperparameterSet) models.HyperparameterSet
	Record(ctx context.Context, run *models.TrainingRun) error
}

// AnalogueRetriever indexes historical segments and returns shape-wise
// nearest precedents for a query window. Matches are advisory context
// only.
type AnalogueRetriever interface {
	Add(segment models.HistoricalSegment)
	Retrieve(query []float64, k int) []models.AnalogueMatch
	Len() int
}
