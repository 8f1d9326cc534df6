package usecase

import (
	"context"
	"errors"
	"testing"

	"StockCast/internal/domain/models"
)

func TestBacktestRollsTheOriginForward(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(300)}})

	report, err := b.Backtest(context.Background(), "AAPL", "1y", models.ArchLSTM,
		BacktestOptions{TrainSize: 80, TestSize: 10, StepSize: 40})
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(report.Folds) != 6 {
		t.Fatalf("got %d folds, want 6", len(report.Folds))
	}
	for _, fold := range report.Folds {
		if fold.Error != "" {
			t.Fatalf("fold %d failed: %s", fold.Fold, fold.Error)
		}
		if fold.Metrics == nil || fold.Metrics.RMSE <= 0 {
			t.Errorf("fold %d metrics = %+v", fold.Fold, fold.Metrics)
		}
		if fold.TrainEnd-fold.TrainStart != 80 || fold.TestEnd-fold.TestStart != 10 {
			t.Errorf("fold %d bounds [%d:%d)[%d:%d)", fold.Fold,
				fold.TrainStart, fold.TrainEnd, fold.TestStart, fold.TestEnd)
		}
	}
	if report.Folds[1].TrainStart != 40 {
		t.Errorf("second fold train start = %d, want 40", report.Folds[1].TrainStart)
	}
	if report.Aggregate == nil || !report.Aggregate.Valid() {
		t.Errorf("aggregate = %+v", report.Aggregate)
	}
	if report.MeanRMSE <= 0 || report.MeanMAE <= 0 {
		t.Errorf("summary means = %v/%v", report.MeanRMSE, report.MeanMAE)
	}
	if report.Strategy != StrategyRolling {
		t.Errorf("strategy = %q", report.Strategy)
	}
}

func TestBacktestExpandingKeepsTheOrigin(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(300)}})

	report, err := b.Backtest(context.Background(), "AAPL", "1y", models.ArchLSTM,
		BacktestOptions{TrainSize: 80, TestSize: 10, StepSize: 80, Strategy: StrategyExpanding})
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(report.Folds) < 2 {
		t.Fatalf("got %d folds, want at least 2", len(report.Folds))
	}
	for _, fold := range report.Folds {
		if fold.TrainStart != 0 {
			t.Errorf("fold %d train start = %d with expanding window", fold.Fold, fold.TrainStart)
		}
	}
	if first, second := report.Folds[0], report.Folds[1]; second.TrainEnd <= first.TrainEnd {
		t.Errorf("training window did not grow: %d then %d", first.TrainEnd, second.TrainEnd)
	}
}

func TestBacktestInsufficientData(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(50)}})

	_, err := b.Backtest(context.Background(), "AAPL", "1y", models.ArchLSTM, BacktestOptions{})
	var insufficient *models.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientDataError", err)
	}
}

func TestBacktestFailingArchitectureKeepsFoldRows(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(300)}})

	report, err := b.Backtest(context.Background(), "AAPL", "1y", "prophet",
		BacktestOptions{TrainSize: 80, TestSize: 10, StepSize: 40})
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(report.Folds) != 6 {
		t.Fatalf("got %d folds, want 6", len(report.Folds))
	}
	for _, fold := range report.Folds {
		if fold.Error == "" {
			t.Errorf("fold %d has no error for unknown architecture", fold.Fold)
		}
	}
	if report.Aggregate != nil {
		t.Errorf("aggregate computed with no successful folds: %+v", report.Aggregate)
	}
}

func TestWalkForwardSplitDefaults(t *testing.T) {
	opts := BacktestOptions{}
	opts.fill()
	if opts.TrainSize != 100 || opts.TestSize != 20 || opts.StepSize != 10 {
		t.Errorf("defaults = %+v", opts)
	}
	if opts.Strategy != StrategyRolling {
		t.Errorf("default strategy = %q", opts.Strategy)
	}

	splits := walkForwardSplits(300, opts)
	if len(splits) != 19 {
		t.Fatalf("got %d splits, want 19", len(splits))
	}
	last := splits[len(splits)-1]
	if last.testEnd > 300 {
		t.Errorf("last split overruns series: testEnd = %d", last.testEnd)
	}
}
