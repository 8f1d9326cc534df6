package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/service/cache"
	"StockCast/internal/services/analogue"
	"StockCast/internal/services/conformal"
	"StockCast/internal/services/tensor"
	"StockCast/pkg/logger"
)

type forecasterFixture struct {
	*trainerFixture
	forecaster *Forecaster
	retriever  *analogue.Retriever
	served     *ServedLog
}

// newForecasterFixture trains one LSTM to promotion and builds a
// forecaster on the same registry and calibrations.
func newForecasterFixture(t *testing.T) *forecasterFixture {
	t.Helper()
	fx := newTrainerFixture(t, tensor.NewLocalEngine())
	if _, err := fx.trainer.TrainAndEvaluate(context.Background(), "AAPL", models.ArchLSTM, "1y", nil); err != nil {
		t.Fatalf("seed training: %v", err)
	}
	return newForecasterAround(t, fx)
}

func newForecasterAround(t *testing.T, fx *trainerFixture) *forecasterFixture {
	t.Helper()
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json"})
	retriever := analogue.New()
	served := NewServedLog()
	forecaster := NewForecaster(
		fx.trainer.source,
		fx.trainer.factory,
		fx.registry,
		conformal.New(),
		fx.calibrations,
		retriever,
		cache.NewForecastCache(cache.NewTTLCache(), 5*time.Minute),
		served,
		nullMetrics{},
		log,
	)
	return &forecasterFixture{trainerFixture: fx, forecaster: forecaster, retriever: retriever, served: served}
}

func TestForecastRequiresPromotedVersion(t *testing.T) {
	fx := newForecasterAround(t, newTrainerFixture(t, tensor.NewLocalEngine()))

	_, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 5, 0, 0)
	if !errors.Is(err, ErrNoPromotedVersion) {
		t.Fatalf("err = %v, want ErrNoPromotedVersion", err)
	}
}

func TestForecastReturnsHorizonPoints(t *testing.T) {
	fx := newForecasterFixture(t)

	forecast, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 7, 0, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(forecast.Points) != 7 {
		t.Fatalf("got %d points, want 7", len(forecast.Points))
	}
	for i, p := range forecast.Points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Errorf("point %d is not finite: %v", i, p)
		}
	}
	if cur := fx.registry.Current(models.ArchLSTM); forecast.VersionID != cur.ID {
		t.Errorf("forecast version = %s, want promoted %s", forecast.VersionID, cur.ID)
	}
	if len(forecast.Intervals) != 0 {
		t.Errorf("intervals attached without coverage request: %v", forecast.Intervals)
	}
}

func TestForecastServedFromCache(t *testing.T) {
	fx := newForecasterFixture(t)
	ctx := context.Background()

	first, err := fx.forecaster.Forecast(ctx, "AAPL", models.ArchLSTM, 5, 0, 0)
	if err != nil {
		t.Fatalf("first forecast: %v", err)
	}
	second, err := fx.forecaster.Forecast(ctx, "AAPL", models.ArchLSTM, 5, 0, 0)
	if err != nil {
		t.Fatalf("second forecast: %v", err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Error("second forecast recomputed instead of served from cache")
	}
}

func TestForecastCacheKeyedByRequestShape(t *testing.T) {
	fx := newForecasterFixture(t)
	ctx := context.Background()

	// Warm the cache with a plain request, then ask for intervals. The
	// cached entry must not shadow the richer request.
	plain, err := fx.forecaster.Forecast(ctx, "AAPL", models.ArchLSTM, 5, 0, 0)
	if err != nil {
		t.Fatalf("plain forecast: %v", err)
	}
	if len(plain.Intervals) != 0 {
		t.Fatalf("plain forecast carries intervals: %v", plain.Intervals)
	}

	withIntervals, err := fx.forecaster.Forecast(ctx, "AAPL", models.ArchLSTM, 5, 0.9, 0)
	if err != nil {
		t.Fatalf("interval forecast: %v", err)
	}
	if len(withIntervals.Intervals) != len(withIntervals.Points) {
		t.Fatalf("got %d intervals for %d points after cached plain request",
			len(withIntervals.Intervals), len(withIntervals.Points))
	}

	// Both shapes now hit their own cache entries.
	again, err := fx.forecaster.Forecast(ctx, "AAPL", models.ArchLSTM, 5, 0.9, 0)
	if err != nil {
		t.Fatalf("repeat interval forecast: %v", err)
	}
	if !again.GeneratedAt.Equal(withIntervals.GeneratedAt) {
		t.Error("repeat interval request recomputed instead of served from cache")
	}
}

func TestForecastAttachesIntervalsAndRegistersServed(t *testing.T) {
	fx := newForecasterFixture(t)

	forecast, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 4, 0.9, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(forecast.Intervals) != len(forecast.Points) {
		t.Fatalf("got %d intervals for %d points", len(forecast.Intervals), len(forecast.Points))
	}
	for i, iv := range forecast.Intervals {
		p := forecast.Points[i]
		if iv.Lower > p || iv.Upper < p {
			t.Errorf("interval %d [%v, %v] excludes point %v", i, iv.Lower, iv.Upper, p)
		}
	}
	if forecast.Coverage != 0.9 {
		t.Errorf("coverage = %v, want 0.9", forecast.Coverage)
	}

	// The first-step interval is registered for live feedback.
	if _, ok := fx.served.Take("AAPL"); !ok {
		t.Error("no served entry registered for AAPL")
	}
}

func TestForecastOmitsIntervalsOnThinCalibration(t *testing.T) {
	fx := newForecasterFixture(t)
	version := fx.registry.Current(models.ArchLSTM)

	// Replace the calibration with one below the residual minimum.
	fx.calibrations.Set(models.ArchLSTM, &models.CalibrationSet{
		VersionID:      version.ID,
		Residuals:      []float64{0.5, 1.0, 1.5},
		TargetCoverage: 0.9,
		Alpha:          0.1,
	})

	forecast, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 3, 0.9, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(forecast.Intervals) != 0 {
		t.Errorf("intervals produced from %d residuals", 3)
	}
	if _, ok := fx.served.Take("AAPL"); ok {
		t.Error("served entry registered without intervals")
	}
}

func TestForecastAttachesAnalogues(t *testing.T) {
	fx := newForecasterFixture(t)

	// Index a segment shaped like the query window, so similarity is
	// near 1 and clears the threshold.
	series := trendSeries(300)
	fx.retriever.Add(models.HistoricalSegment{
		ID:      "seg-1",
		Ticker:  "MSFT",
		Window:  series[len(series)-60:],
		Outcome: 190,
	})

	forecast, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 3, 0, 5)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(forecast.Analogues) == 0 {
		t.Fatal("no analogue matches attached")
	}
	if forecast.Summary == nil || forecast.Summary.Count != len(forecast.Analogues) {
		t.Errorf("summary = %+v", forecast.Summary)
	}
	if forecast.Analogues[0].Similarity < 0.99 {
		t.Errorf("top similarity = %v, want near 1", forecast.Analogues[0].Similarity)
	}
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	fx := newForecasterFixture(t)
	if _, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 0, 0, 0); err == nil {
		t.Fatal("expected error for zero horizon")
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	fx := newForecasterFixture(t)

	// Shrink the feed below the promoted model's window length.
	fx.trainer.source.(*fakeSource).series["AAPL"] = trendSeries(10)

	_, err := fx.forecaster.Forecast(context.Background(), "AAPL", models.ArchLSTM, 3, 0, 0)
	var insufficient *models.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientDataError", err)
	}
}
