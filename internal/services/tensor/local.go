package tensor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"StockCast/internal/domain/models"
)

// tailWindow is how many trailing observations the local predictor
// averages. Matches the serving fallback the pipeline shipped with
// before the external engine existed.
const tailWindow = 5

// LocalEngine is a deterministic in-process engine used when no
// external training service is configured, and by tests. Its "model"
// predicts the mean of the last few observations of each sequence;
// Fit measures that rule's loss on the training set so the rest of the
// pipeline (metrics, registry, conformal) behaves exactly as with a
// real engine.
type LocalEngine struct{}

func NewLocalEngine() *LocalEngine { return &LocalEngine{} }

type localModel struct {
	Architecture string `json:"architecture"`
	Tail         int    `json:"tail"`
}

func (e *LocalEngine) Fit(ctx context.Context, sequences [][]float64, targets []float64, cfg TrainConfig) (*FitResult, error) {
	if len(sequences) == 0 || len(sequences) != len(targets) {
		return nil, fmt.Errorf("fit: %d sequences for %d targets", len(sequences), len(targets))
	}

	model := localModel{Architecture: cfg.Architecture, Tail: tailWindow}

	// One pass per epoch keeps wall-clock roughly proportional to the
	// requested budget and gives cancellation a place to land.
	var loss float64
	epochs := cfg.Epochs
	if epochs < 1 {
		epochs = 1
	}
	for epoch := 0; epoch < epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		loss = 0
		for i, seq := range sequences {
			d := tailMean(seq, model.Tail) - targets[i]
			loss += d * d
		}
		loss /= float64(len(sequences))
	}

	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return nil, &models.TrainingDivergedError{Architecture: cfg.Architecture, Loss: loss}
	}

	payload, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return &FitResult{Payload: payload, FinalLoss: loss}, nil
}

func (e *LocalEngine) Predict(ctx context.Context, payload []byte, sequences [][]float64) ([]float64, error) {
	var model localModel
	if err := json.Unmarshal(payload, &model); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if model.Tail < 1 {
		model.Tail = tailWindow
	}
	out := make([]float64, len(sequences))
	for i, seq := range sequences {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = tailMean(seq, model.Tail)
	}
	return out, nil
}

func tailMean(seq []float64, tail int) float64 {
	if len(seq) == 0 {
		return math.NaN()
	}
	if tail > len(seq) {
		tail = len(seq)
	}
	sum := 0.0
	for _, v := range seq[len(seq)-tail:] {
		sum += v
	}
	return sum / float64(tail)
}

var _ Engine = (*LocalEngine)(nil)
