package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/brain"
	"StockCast/internal/services/evaluation"
	"StockCast/internal/services/preprocess"
	"StockCast/pkg/logger"
)

// Walk-forward strategies. Rolling slides a fixed training window;
// expanding grows it from the start of the series.
const (
	StrategyRolling   = "rolling"
	StrategyExpanding = "expanding"
)

// BacktestOptions sizes the walk-forward splits, in observations.
type BacktestOptions struct {
	TrainSize int
	TestSize  int
	StepSize  int
	Strategy  string
}

func (o *BacktestOptions) fill() {
	if o.TrainSize <= 0 {
		o.TrainSize = 100
	}
	if o.TestSize <= 0 {
		o.TestSize = 20
	}
	if o.StepSize <= 0 {
		o.StepSize = 10
	}
	if o.Strategy != StrategyExpanding {
		o.Strategy = StrategyRolling
	}
}

type backtestSplit struct {
	trainStart, trainEnd, testEnd int
}

// Backtest walk-forwards one architecture over the series: the model
// is retrained from scratch on every fold's training window and scored
// on the held-out window right after it, so every score is out of
// sample. A failing fold is recorded and the walk continues.
func (b *Benchmark) Backtest(ctx context.Context, ticker, period, architecture string, opts BacktestOptions) (*models.BacktestReport, error) {
	opts.fill()
	if period == "" {
		period = "1y"
	}

	history, err := b.source.FetchHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	splits := walkForwardSplits(len(history), opts)
	if len(splits) == 0 {
		return nil, &models.InsufficientDataError{Needed: opts.TrainSize + opts.TestSize, Got: len(history)}
	}

	report := &models.BacktestReport{
		Ticker:       ticker,
		Architecture: architecture,
		Period:       period,
		Strategy:     opts.Strategy,
		TrainSize:    opts.TrainSize,
		TestSize:     opts.TestSize,
		StepSize:     opts.StepSize,
		GeneratedAt:  time.Now().UTC(),
	}

	var allActual, allPredicted []float64
	var rmses, maes []float64

	for i, split := range splits {
		fold := models.BacktestFold{
			Fold:       i + 1,
			TrainStart: split.trainStart,
			TrainEnd:   split.trainEnd,
			TestStart:  split.trainEnd,
			TestEnd:    split.testEnd,
		}

		train := history[split.trainStart:split.trainEnd]
		test := history[split.trainEnd:split.testEnd]
		snapshot, predicted, err := b.foldRun(ctx, architecture, train, test)
		if err != nil {
			fold.Error = err.Error()
			report.Folds = append(report.Folds, fold)
			b.log.Warn("backtest fold failed",
				logger.String("ticker", ticker),
				logger.String("architecture", architecture),
				logger.Int("fold", fold.Fold),
				logger.Error(err))
			continue
		}

		fold.Metrics = snapshot
		report.Folds = append(report.Folds, fold)
		rmses = append(rmses, snapshot.RMSE)
		maes = append(maes, snapshot.MAE)
		allActual = append(allActual, test...)
		allPredicted = append(allPredicted, predicted...)
	}

	if len(allActual) > 0 {
		agg := evaluation.Evaluate(allActual, allPredicted, evaluation.Options{Tolerance: b.opts.Tolerance})
		report.Aggregate = &agg
	}
	report.MeanRMSE, _ = meanStd(rmses)
	report.MeanMAE, _ = meanStd(maes)
	return report, nil
}

// walkForwardSplits yields index bounds while a full train+test pair
// still fits, advancing the origin by StepSize each fold.
func walkForwardSplits(n int, opts BacktestOptions) []backtestSplit {
	var out []backtestSplit
	for start := 0; start+opts.TrainSize+opts.TestSize <= n; start += opts.StepSize {
		trainStart := start
		if opts.Strategy == StrategyExpanding {
			trainStart = 0
		}
		trainEnd := start + opts.TrainSize
		out = append(out, backtestSplit{
			trainStart: trainStart,
			trainEnd:   trainEnd,
			testEnd:    trainEnd + opts.TestSize,
		})
	}
	return out
}

// foldRun trains a fresh model on train and predicts each test value
// one step ahead from the true preceding window, returning the fold's
// snapshot alongside the unscaled predictions for pooling.
func (b *Benchmark) foldRun(ctx context.Context, architecture string, train, test []float64) (*models.MetricSnapshot, []float64, error) {
	_, params, err := preprocess.Scale(train)
	if err != nil {
		return nil, nil, err
	}
	hp := brain.Defaults(architecture, len(train))
	if len(train) <= hp.SequenceLength+1 {
		return nil, nil, &models.InsufficientDataError{Needed: hp.SequenceLength + 2, Got: len(train)}
	}

	series := make([]float64, 0, len(train)+len(test))
	series = append(series, train...)
	series = append(series, test...)
	scaled := preprocess.Apply(series, params)

	windows, err := preprocess.Windows(scaled, hp.SequenceLength)
	if err != nil {
		return nil, nil, err
	}
	// Windows targeting indices past the training slice form the fold's
	// test set; everything before is fit material.
	cut := len(train) - hp.SequenceLength
	trainWindows, testWindows := windows[:cut], windows[cut:]

	adapter, err := b.factory.For(architecture)
	if err != nil {
		return nil, nil, err
	}
	handle, err := adapter.Fit(ctx, trainWindows, hp)
	if err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}
	scaledPreds, err := adapter.Predict(ctx, handle, testWindows)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}

	predicted := preprocess.Unscale(scaledPreds, params)
	snapshot := evaluation.Evaluate(test, predicted, evaluation.Options{
		Tolerance: b.opts.Tolerance,
		Train:     train,
	})
	return &snapshot, predicted, nil
}
