package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/internal/registry"
	"StockCast/internal/services/conformal"
	"StockCast/internal/services/evaluation"
	"StockCast/internal/services/preprocess"
	"StockCast/pkg/logger"
)

// AdapterFactory resolves architecture ids to fresh adapters. Each run
// owns its adapter instance; nothing about a fit is shared.
type AdapterFactory interface {
	For(architecture string) (service.ModelAdapter, error)
}

// TrainerOptions are the evaluation knobs every run shares.
type TrainerOptions struct {
	Tolerance     float64 // relative-error bound for tolerance accuracy
	Coverage      float64 // conformal target coverage
	TrainFraction float64
}

func (o *TrainerOptions) fill() {
	if o.Tolerance <= 0 {
		o.Tolerance = 0.05
	}
	if o.Coverage <= 0 || o.Coverage >= 1 {
		o.Coverage = 0.9
	}
	if o.TrainFraction <= 0 || o.TrainFraction >= 1 {
		o.TrainFraction = 0.8
	}
}

// Trainer runs the full train-and-evaluate flow: history in, sealed
// run and registry decision out.
type Trainer struct {
	source       repository.PriceSource
	factory      AdapterFactory
	suggester    service.Suggester
	registry     *registry.Registry
	conformal    *conformal.Predictor
	calibrations *Calibrations
	events       repository.EventPublisher
	metrics      repository.Metrics
	log          *logger.Logger
	opts         TrainerOptions
}

func NewTrainer(
	source repository.PriceSource,
	factory AdapterFactory,
	suggester service.Suggester,
	reg *registry.Registry,
	cp *conformal.Predictor,
	calibrations *Calibrations,
	events repository.EventPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
	opts TrainerOptions,
) *Trainer {
	opts.fill()
	return &Trainer{
		source:       source,
		factory:      factory,
		suggester:    suggester,
		registry:     reg,
		conformal:    cp,
		calibrations: calibrations,
		events:       events,
		metrics:      metrics,
		log:          log,
		opts:         opts,
	}
}

// TrainAndEvaluate fetches history for ticker, trains one model of the
// given architecture, evaluates it on the chronological holdout, and
// submits it to the registry. A caller-supplied hyperparameter set
// always wins; the brain is only consulted when hp is nil. On
// divergence the fit is retried once with a softened set.
func (t *Trainer) TrainAndEvaluate(ctx context.Context, ticker, architecture, period string, hp *models.HyperparameterSet) (*models.TrainingRun, error) {
	if !models.KnownArchitecture(architecture) {
		return nil, fmt.Errorf("unknown architecture %q", architecture)
	}
	if period == "" {
		period = "1y"
	}

	history, err := t.source.FetchHistory(ctx, ticker, period)
	if err != nil {
		t.metrics.RecordError("data_unavailable")
		return nil, err
	}

	chosen, err := t.chooseHyperparams(ctx, architecture, len(history), hp)
	if err != nil {
		return nil, err
	}

	run, err := t.attempt(ctx, ticker, architecture, history, chosen)
	if err == nil {
		return run, nil
	}

	var diverged *models.TrainingDivergedError
	if errors.As(err, &diverged) {
		t.log.Warn("training diverged, retrying with softened set",
			logger.String("architecture", architecture),
			logger.String("ticker", ticker),
			logger.Float64("loss", diverged.Loss))
		retryHP := t.suggester.PerturbForRetry(chosen)
		return t.attempt(ctx, ticker, architecture, history, retryHP)
	}
	return run, err
}

func (t *Trainer) chooseHyperparams(ctx context.Context, architecture string, dataSize int, hp *models.HyperparameterSet) (models.HyperparameterSet, error) {
	if hp != nil {
		chosen := *hp
		chosen.Architecture = architecture
		return chosen, nil
	}
	chosen, err := t.suggester.Suggest(ctx, architecture, dataSize)
	if err != nil {
		return models.HyperparameterSet{}, fmt.Errorf("suggest hyperparameters: %w", err)
	}
	return chosen, nil
}

// attempt is one full run. It always seals and records the run, even
// on failure, so the brain learns from bad regions too.
func (t *Trainer) attempt(ctx context.Context, ticker, architecture string, history []float64, hp models.HyperparameterSet) (*models.TrainingRun, error) {
	run := &models.TrainingRun{
		ID:           uuid.NewString(),
		Architecture: architecture,
		Ticker:       ticker,
		Hyperparams:  hp,
		StartedAt:    time.Now().UTC(),
	}
	t.metrics.RecordRunStarted(architecture)
	started := time.Now()

	result, err := t.execute(ctx, run, history, hp)
	run.CompletedAt = time.Now().UTC()
	t.metrics.RecordRunCompleted(architecture, run.Outcome)
	t.metrics.RecordLatency("train", time.Since(started).Seconds())

	if err != nil {
		t.seal(ctx, run)
		return run, err
	}

	// Submit before sealing so the recorded run carries the registry
	// decision. A registry failure must not lose the run record.
	submitErr := t.submit(ctx, run, result)
	t.seal(ctx, run)
	if submitErr != nil {
		return run, submitErr
	}
	return run, nil
}

type attemptResult struct {
	artifact  *models.Artifact
	predicted []float64
	actual    []float64
}

func (t *Trainer) execute(ctx context.Context, run *models.TrainingRun, history []float64, hp models.HyperparameterSet) (*attemptResult, error) {
	train, _ := preprocess.Split(history, t.opts.TrainFraction)

	_, params, err := preprocess.Scale(train)
	if err != nil {
		run.Outcome = models.RunFailed
		run.Error = err.Error()
		return nil, err
	}
	scaled := preprocess.Apply(history, params)

	windows, err := preprocess.Windows(scaled, hp.SequenceLength)
	if err != nil {
		run.Outcome = models.RunFailed
		run.Error = err.Error()
		return nil, err
	}
	trainWindows, holdoutWindows := preprocess.SplitWindows(windows, t.opts.TrainFraction)
	if len(trainWindows) == 0 || len(holdoutWindows) == 0 {
		err := &models.InsufficientDataError{Needed: hp.SequenceLength + 2, Got: len(history)}
		run.Outcome = models.RunFailed
		run.Error = err.Error()
		return nil, err
	}

	adapter, err := t.factory.For(run.Architecture)
	if err != nil {
		run.Outcome = models.RunFailed
		run.Error = err.Error()
		return nil, err
	}

	handle, err := adapter.Fit(ctx, trainWindows, hp)
	if err != nil {
		t.classifyFitError(run, err)
		return nil, err
	}

	scaledPreds, err := adapter.Predict(ctx, handle, holdoutWindows)
	if err != nil {
		t.classifyFitError(run, err)
		return nil, err
	}

	predicted := preprocess.Unscale(scaledPreds, params)
	scaledActual := make([]float64, len(holdoutWindows))
	for i, w := range holdoutWindows {
		scaledActual[i] = w.Target
	}
	actual := preprocess.Unscale(scaledActual, params)

	snapshot := evaluation.Evaluate(actual, predicted, evaluation.Options{
		Tolerance: t.opts.Tolerance,
		Train:     train,
	})
	run.Metrics = &snapshot
	run.Outcome = models.RunCompleted

	t.log.Info("run completed",
		logger.String("run", run.ID),
		logger.String("architecture", run.Architecture),
		logger.String("ticker", run.Ticker),
		logger.Float64("tolerance_accuracy", snapshot.ToleranceAccuracy),
		logger.Float64("rmse", snapshot.RMSE))

	return &attemptResult{
		artifact:  &models.Artifact{Handle: handle, Scale: params},
		predicted: predicted,
		actual:    actual,
	}, nil
}

func (t *Trainer) classifyFitError(run *models.TrainingRun, err error) {
	run.Error = err.Error()
	var diverged *models.TrainingDivergedError
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		run.Outcome = models.RunCancelled
	case errors.As(err, &diverged):
		run.Outcome = models.RunDiverged
	default:
		run.Outcome = models.RunFailed
	}
}

// seal records the run with the brain and publishes it. Best effort:
// the run result is already decided.
func (t *Trainer) seal(ctx context.Context, run *models.TrainingRun) {
	recordCtx := ctx
	if ctx.Err() != nil {
		// Cancelled runs still get recorded.
		var cancel context.CancelFunc
		recordCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := t.suggester.Record(recordCtx, run); err != nil {
		t.log.Warn("record run", logger.String("run", run.ID), logger.Error(err))
	}
	if err := t.events.PublishRun(recordCtx, run); err != nil {
		t.log.Warn("publish run", logger.String("run", run.ID), logger.Error(err))
	}
}

func (t *Trainer) submit(ctx context.Context, run *models.TrainingRun, result *attemptResult) error {
	version, promoted, err := t.registry.Submit(ctx, run, result.artifact)
	if err != nil {
		return fmt.Errorf("registry submit: %w", err)
	}

	if promoted {
		set, err := t.conformal.Calibrate(version.ID, result.predicted, result.actual, t.opts.Coverage)
		if err != nil {
			t.log.Warn("calibrate promoted version", logger.String("version", version.ID), logger.Error(err))
			return nil
		}
		t.calibrations.Set(run.Architecture, set)
	}
	return nil
}
