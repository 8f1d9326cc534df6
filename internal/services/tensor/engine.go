package tensor

import "context"

// TrainConfig is the architecture-resolved configuration handed to the
// training engine. Adapters build it from a HyperparameterSet; the
// engine treats it as opaque knobs.
type TrainConfig struct {
	Architecture   string  `json:"architecture"`
	SequenceLength int     `json:"sequence_length"`
	Layers         int     `json:"layers"`
	HiddenWidth    int     `json:"hidden_width"`
	Dropout        float64 `json:"dropout"`
	LearningRate   float64 `json:"learning_rate"`
	Epochs         int     `json:"epochs"`
	BatchSize      int     `json:"batch_size"`
	PatchLength    int     `json:"patch_length,omitempty"`
}

// FitResult is what a completed fit hands back: an engine-specific
// model reference and the final training loss.
type FitResult struct {
	Payload   []byte  `json:"payload"`
	FinalLoss float64 `json:"final_loss"`
}

// Engine is the external deep-learning collaborator: fit and predict as
// a black box. Fit must honor ctx cancellation by stopping the training
// loop early, and must report a TrainingDivergedError when the loss
// becomes non-finite.
type Engine interface {
	Fit(ctx context.Context, sequences [][]float64, targets []float64, cfg TrainConfig) (*FitResult, error)
	Predict(ctx context.Context, payload []byte, sequences [][]float64) ([]float64, error)
}
