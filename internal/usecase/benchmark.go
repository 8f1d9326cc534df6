package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/services/brain"
	"StockCast/internal/services/evaluation"
	"StockCast/internal/services/preprocess"
	"StockCast/pkg/logger"
)

// Benchmark compares architectures on one identical chronological
// split. Runs are standalone: nothing here touches the registry, so a
// comparison can never promote or demote a serving model.
type Benchmark struct {
	source  repository.PriceSource
	factory AdapterFactory
	metrics repository.Metrics
	log     *logger.Logger
	opts    TrainerOptions
}

func NewBenchmark(source repository.PriceSource, factory AdapterFactory, metrics repository.Metrics, log *logger.Logger, opts TrainerOptions) *Benchmark {
	opts.fill()
	return &Benchmark{source: source, factory: factory, metrics: metrics, log: log, opts: opts}
}

// Compare trains each architecture repeats times on the same split and
// reports mean and spread per metric. A failing architecture gets an
// error entry; the rest of the report still comes back.
func (b *Benchmark) Compare(ctx context.Context, ticker, period string, architectures []string, repeats int) (*models.BenchmarkReport, error) {
	if repeats < 1 {
		repeats = 1
	}
	if period == "" {
		period = "1y"
	}

	history, err := b.source.FetchHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	train, holdout := preprocess.Split(history, b.opts.TrainFraction)
	report := &models.BenchmarkReport{
		Ticker:      ticker,
		Period:      period,
		TrainSize:   len(train),
		TestSize:    len(holdout),
		GeneratedAt: time.Now().UTC(),
	}

	for _, arch := range architectures {
		entry := b.compareOne(ctx, arch, history, train, repeats)
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

func (b *Benchmark) compareOne(ctx context.Context, architecture string, history, train []float64, repeats int) models.BenchmarkEntry {
	entry := models.BenchmarkEntry{Architecture: architecture, Repeats: repeats}

	var rmses, maes, accs []float64
	var trainDur, inferDur time.Duration

	for i := 0; i < repeats; i++ {
		snapshot, td, id, err := b.singleRun(ctx, architecture, history, train)
		if err != nil {
			entry.Error = err.Error()
			b.log.Warn("benchmark run failed",
				logger.String("architecture", architecture),
				logger.Int("repeat", i),
				logger.Error(err))
			return entry
		}
		rmses = append(rmses, snapshot.RMSE)
		maes = append(maes, snapshot.MAE)
		accs = append(accs, snapshot.ToleranceAccuracy)
		trainDur += td
		inferDur += id
	}

	entry.RMSEMean, entry.RMSEStd = meanStd(rmses)
	entry.MAEMean, entry.MAEStd = meanStd(maes)
	entry.AccuracyMean, entry.AccuracyStd = meanStd(accs)
	entry.TrainDuration = trainDur.Seconds() / float64(repeats)
	entry.InferenceLatency = inferDur.Seconds() / float64(repeats)
	return entry
}

func (b *Benchmark) singleRun(ctx context.Context, architecture string, history, train []float64) (*models.MetricSnapshot, time.Duration, time.Duration, error) {
	_, params, err := preprocess.Scale(train)
	if err != nil {
		return nil, 0, 0, err
	}
	hp := brain.Defaults(architecture, len(train))

	scaled := preprocess.Apply(history, params)
	windows, err := preprocess.Windows(scaled, hp.SequenceLength)
	if err != nil {
		return nil, 0, 0, err
	}
	trainWindows, holdoutWindows := preprocess.SplitWindows(windows, b.opts.TrainFraction)
	if len(trainWindows) == 0 || len(holdoutWindows) == 0 {
		return nil, 0, 0, &models.InsufficientDataError{Needed: hp.SequenceLength + 2, Got: len(history)}
	}

	adapter, err := b.factory.For(architecture)
	if err != nil {
		return nil, 0, 0, err
	}

	fitStart := time.Now()
	handle, err := adapter.Fit(ctx, trainWindows, hp)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("fit: %w", err)
	}
	trainDur := time.Since(fitStart)

	inferStart := time.Now()
	scaledPreds, err := adapter.Predict(ctx, handle, holdoutWindows)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("predict: %w", err)
	}
	inferDur := time.Since(inferStart)

	predicted := preprocess.Unscale(scaledPreds, params)
	scaledActual := make([]float64, len(holdoutWindows))
	for i, w := range holdoutWindows {
		scaledActual[i] = w.Target
	}
	actual := preprocess.Unscale(scaledActual, params)

	snapshot := evaluation.Evaluate(actual, predicted, evaluation.Options{
		Tolerance: b.opts.Tolerance,
		Train:     train,
	})
	return &snapshot, trainDur, inferDur, nil
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) == 1 {
		return mean, 0
	}
	vs := 0.0
	for _, x := range xs {
		d := x - mean
		vs += d * d
	}
	return mean, math.Sqrt(vs / float64(len(xs)))
}
