package usecase

import (
	"context"
	"errors"
	"testing"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/adapters"
	"StockCast/internal/services/tensor"
	"StockCast/pkg/logger"
)

func newBenchmark(source *fakeSource) *Benchmark {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	return NewBenchmark(
		source,
		adapters.NewFactory(tensor.NewLocalEngine()),
		nullMetrics{},
		log,
		TrainerOptions{Tolerance: 0.05, Coverage: 0.9, TrainFraction: 0.8},
	)
}

func TestCompareReportsAllArchitectures(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(300)}})

	report, err := b.Compare(context.Background(), "AAPL", "1y", []string{models.ArchLSTM, models.ArchChronos}, 2)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(report.Entries))
	}
	if report.TrainSize == 0 || report.TestSize == 0 {
		t.Errorf("split sizes = %d/%d", report.TrainSize, report.TestSize)
	}
	for _, entry := range report.Entries {
		if entry.Error != "" {
			t.Errorf("%s failed: %s", entry.Architecture, entry.Error)
			continue
		}
		if entry.Repeats != 2 {
			t.Errorf("%s repeats = %d", entry.Architecture, entry.Repeats)
		}
		if entry.RMSEMean <= 0 {
			t.Errorf("%s rmse mean = %v", entry.Architecture, entry.RMSEMean)
		}
		if entry.AccuracyMean < 0 || entry.AccuracyMean > 100 {
			t.Errorf("%s accuracy mean = %v", entry.Architecture, entry.AccuracyMean)
		}
	}

	// Deterministic engine, identical split: no spread across repeats.
	if report.Entries[0].RMSEStd != 0 {
		t.Errorf("rmse std = %v with deterministic backend", report.Entries[0].RMSEStd)
	}
}

func TestCompareFailingArchitectureGetsErrorEntry(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{"AAPL": trendSeries(300)}})

	report, err := b.Compare(context.Background(), "AAPL", "1y", []string{"prophet", models.ArchLSTM}, 1)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if report.Entries[0].Error == "" {
		t.Error("unknown architecture has no error entry")
	}
	if report.Entries[1].Error != "" {
		t.Errorf("healthy architecture failed: %s", report.Entries[1].Error)
	}
}

func TestCompareSurfacesDataErrors(t *testing.T) {
	b := newBenchmark(&fakeSource{series: map[string][]float64{}})

	_, err := b.Compare(context.Background(), "ZZZZ", "1y", []string{models.ArchLSTM}, 1)
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if std != 2 {
		t.Errorf("std = %v, want 2", std)
	}

	mean, std = meanStd([]float64{3})
	if mean != 3 || std != 0 {
		t.Errorf("single-sample mean/std = %v/%v", mean, std)
	}

	mean, std = meanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty mean/std = %v/%v", mean, std)
	}
}
