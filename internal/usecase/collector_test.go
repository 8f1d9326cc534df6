package usecase

import (
	"context"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/analogue"
	"StockCast/internal/services/conformal"
	"StockCast/pkg/logger"
)

type processorFixture struct {
	processor    *TickProcessor
	retriever    *analogue.Retriever
	calibrations *Calibrations
	served       *ServedLog
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	retriever := analogue.New()
	calibrations := NewCalibrations()
	served := NewServedLog()
	processor := NewTickProcessor(retriever, conformal.New(), calibrations, served, log)
	return &processorFixture{processor: processor, retriever: retriever, calibrations: calibrations, served: served}
}

func residuals(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * 0.1
	}
	return out
}

func TestProcessorObservesServedInterval(t *testing.T) {
	fx := newProcessorFixture(t)
	set := &models.CalibrationSet{
		VersionID:      "v1",
		Residuals:      residuals(30),
		TargetCoverage: 0.9,
		Alpha:          0.1,
	}
	fx.calibrations.Set(models.ArchLSTM, set)
	fx.served.Put("AAPL", models.ArchLSTM, "v1", models.Interval{Lower: 180, Upper: 200})

	err := fx.processor.Process(context.Background(), &models.Tick{Ticker: "AAPL", Price: 190, Timestamp: time.Now().Unix()})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if set.Observed != 1 || set.Covered != 1 {
		t.Errorf("observed/covered = %d/%d, want 1/1", set.Observed, set.Covered)
	}

	// The entry is consumed: the next tick is not counted again.
	_ = fx.processor.Process(context.Background(), &models.Tick{Ticker: "AAPL", Price: 191, Timestamp: time.Now().Unix()})
	if set.Observed != 1 {
		t.Errorf("observed = %d after consuming entry, want 1", set.Observed)
	}
}

func TestProcessorDropsStaleFeedback(t *testing.T) {
	fx := newProcessorFixture(t)
	set := &models.CalibrationSet{
		VersionID:      "v2", // the served interval came from v1
		Residuals:      residuals(30),
		TargetCoverage: 0.9,
		Alpha:          0.1,
	}
	fx.calibrations.Set(models.ArchLSTM, set)
	fx.served.Put("AAPL", models.ArchLSTM, "v1", models.Interval{Lower: 180, Upper: 200})

	_ = fx.processor.Process(context.Background(), &models.Tick{Ticker: "AAPL", Price: 190, Timestamp: time.Now().Unix()})
	if set.Observed != 0 {
		t.Errorf("stale feedback observed %d times, want 0", set.Observed)
	}
}

func TestProcessorMissWidensAlpha(t *testing.T) {
	fx := newProcessorFixture(t)
	set := &models.CalibrationSet{
		VersionID:      "v1",
		Residuals:      residuals(30),
		TargetCoverage: 0.9,
		Alpha:          0.1,
	}
	fx.calibrations.Set(models.ArchLSTM, set)
	fx.served.Put("AAPL", models.ArchLSTM, "v1", models.Interval{Lower: 180, Upper: 200})

	// Realized price misses the band; alpha must shrink (wider bands).
	_ = fx.processor.Process(context.Background(), &models.Tick{Ticker: "AAPL", Price: 250, Timestamp: time.Now().Unix()})
	if set.Covered != 0 {
		t.Errorf("covered = %d for a miss", set.Covered)
	}
	if set.Alpha >= 0.1 {
		t.Errorf("alpha = %v after miss, want < 0.1", set.Alpha)
	}
}

func TestProcessorIndexesSegments(t *testing.T) {
	fx := newProcessorFixture(t)
	ctx := context.Background()

	// One full window plus the outcome tick forms the first segment.
	for i := 0; i <= segmentLength; i++ {
		_ = fx.processor.Process(ctx, &models.Tick{Ticker: "AAPL", Price: 100 + float64(i), Timestamp: int64(i + 1)})
	}
	if fx.retriever.Len() != 1 {
		t.Fatalf("indexed %d segments, want 1", fx.retriever.Len())
	}

	// The buffer slides by the stride, so the next segment arrives
	// after stride more ticks.
	for i := 0; i < segmentStride; i++ {
		_ = fx.processor.Process(ctx, &models.Tick{Ticker: "AAPL", Price: 200 + float64(i), Timestamp: int64(100 + i)})
	}
	if fx.retriever.Len() != 2 {
		t.Errorf("indexed %d segments, want 2", fx.retriever.Len())
	}

	// Buffers are per ticker.
	_ = fx.processor.Process(ctx, &models.Tick{Ticker: "MSFT", Price: 400, Timestamp: 1})
	if fx.retriever.Len() != 2 {
		t.Errorf("single foreign tick produced a segment")
	}
}
