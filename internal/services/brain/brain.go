package brain

import (
	"context"
	"fmt"
	"sync"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/pkg/logger"
)

// Tuning bounds. A perturbation never leaves these ranges.
const (
	minSeqLen = 10
	maxSeqLen = 120
	minWidth  = 16
	maxWidth  = 256
	minLR     = 1e-5
	maxLR     = 0.1
	minDrop   = 0.0
	maxDrop   = 0.6
	minEpochs = 5
	maxEpochs = 100
)

// Perturbation step sizes per dimension.
const (
	seqLenStep = 10
	widthStep  = 16
	dropStep   = 0.05
	epochsStep = 5
	lrFactor   = 2.0
)

// dimensions cycled by successive suggestions for one architecture.
const dimensionCount = 5

// Brain suggests hyperparameters from run history. When history is
// empty it hands out architecture defaults sized to the dataset; after
// that it takes the best completed run and perturbs exactly one
// dimension per suggestion, cycling through the dimensions so repeated
// calls explore the neighborhood instead of thrashing one knob.
type Brain struct {
	runs repository.RunStore
	log  *logger.Logger

	mu     sync.Mutex
	counts map[string]int // suggestions issued per architecture
}

func New(runs repository.RunStore, log *logger.Logger) *Brain {
	return &Brain{
		runs:   runs,
		log:    log,
		counts: make(map[string]int),
	}
}

// Suggest returns the next hyperparameter set to try for architecture.
// dataSize is the number of training samples available; it sizes the
// epoch and batch budget when no history exists.
func (b *Brain) Suggest(ctx context.Context, architecture string, dataSize int) (models.HyperparameterSet, error) {
	if !models.KnownArchitecture(architecture) {
		return models.HyperparameterSet{}, fmt.Errorf("unknown architecture %q", architecture)
	}

	history, err := b.runs.List(ctx, architecture)
	if err != nil {
		return models.HyperparameterSet{}, fmt.Errorf("list runs: %w", err)
	}

	best := bestRun(history)
	if best == nil {
		hp := Defaults(architecture, dataSize)
		b.log.Debug("suggesting defaults",
			logger.String("architecture", architecture),
			logger.Int("data_size", dataSize))
		return hp, nil
	}

	b.mu.Lock()
	count := b.counts[architecture]
	b.counts[architecture]++
	b.mu.Unlock()

	hp := perturb(best.Hyperparams, count)
	hp.Name = fmt.Sprintf("%s-auto-%d", architecture, count)
	b.log.Debug("suggesting perturbed set",
		logger.String("architecture", architecture),
		logger.String("base_run", best.ID),
		logger.Int("dimension", count%dimensionCount))
	return hp, nil
}

// PerturbForRetry softens a set after a divergence: halve the learning
// rate, everything else untouched.
func (b *Brain) PerturbForRetry(hp models.HyperparameterSet) models.HyperparameterSet {
	out := hp
	out.LearningRate = clampFloat(hp.LearningRate/lrFactor, minLR, maxLR)
	out.Name = hp.Name + "-retry"
	return out
}

// Record appends a sealed run to the history. Failed runs stay in the
// log so their region is never selected as a base again.
func (b *Brain) Record(ctx context.Context, run *models.TrainingRun) error {
	if err := b.runs.Append(ctx, run); err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

// Defaults returns the starting hyperparameters for an architecture,
// with the epoch/batch budget sized to the dataset.
func Defaults(architecture string, dataSize int) models.HyperparameterSet {
	hp := models.HyperparameterSet{
		Name:           architecture + "-default",
		Architecture:   architecture,
		SequenceLength: 60,
		HiddenWidth:    50,
		Dropout:        0.2,
		LearningRate:   0.001,
		Epochs:         20,
		BatchSize:      32,
	}
	switch {
	case dataSize > 0 && dataSize < 100:
		hp.Epochs = 10
		hp.BatchSize = 16
	case dataSize > 1000:
		hp.Epochs = 30
		hp.BatchSize = 64
	}
	return hp
}

// bestRun picks the completed run with the highest tolerance accuracy.
// Runs that failed, diverged, were cancelled, or carry no metrics are
// never candidates.
func bestRun(history []*models.TrainingRun) *models.TrainingRun {
	var best *models.TrainingRun
	for _, run := range history {
		if run.Outcome != models.RunCompleted || run.Metrics == nil {
			continue
		}
		if best == nil || run.Metrics.ToleranceAccuracy > best.Metrics.ToleranceAccuracy {
			best = run
		}
	}
	return best
}

// perturb changes exactly one dimension of hp. The dimension cycles
// with count; the direction flips each full cycle.
func perturb(hp models.HyperparameterSet, count int) models.HyperparameterSet {
	out := hp
	up := (count/dimensionCount)%2 == 0

	switch count % dimensionCount {
	case 0:
		out.SequenceLength = clampInt(step(hp.SequenceLength, seqLenStep, up), minSeqLen, maxSeqLen)
	case 1:
		out.HiddenWidth = clampInt(step(hp.HiddenWidth, widthStep, up), minWidth, maxWidth)
	case 2:
		lr := hp.LearningRate * lrFactor
		if !up {
			lr = hp.LearningRate / lrFactor
		}
		out.LearningRate = clampFloat(lr, minLR, maxLR)
	case 3:
		drop := hp.Dropout + dropStep
		if !up {
			drop = hp.Dropout - dropStep
		}
		out.Dropout = clampFloat(drop, minDrop, maxDrop)
	case 4:
		out.Epochs = clampInt(step(hp.Epochs, epochsStep, up), minEpochs, maxEpochs)
	}
	return out
}

func step(v, delta int, up bool) int {
	if up {
		return v + delta
	}
	return v - delta
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ service.Suggester = (*Brain)(nil)
