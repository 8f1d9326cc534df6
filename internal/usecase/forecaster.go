package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/internal/registry"
	"StockCast/internal/service/cache"
	"StockCast/internal/services/analogue"
	"StockCast/internal/services/conformal"
	"StockCast/internal/services/preprocess"
	"StockCast/pkg/logger"
)

// ErrNoPromotedVersion means no model has ever been promoted for the
// requested architecture; there is nothing safe to serve.
var ErrNoPromotedVersion = errors.New("no promoted version")

// Forecaster serves forecasts from the currently promoted version.
type Forecaster struct {
	source       repository.PriceSource
	factory      AdapterFactory
	registry     *registry.Registry
	conformal    *conformal.Predictor
	calibrations *Calibrations
	retriever    service.AnalogueRetriever
	cache        *cache.ForecastCache
	served       *ServedLog
	metrics      repository.Metrics
	log          *logger.Logger
	period       string
}

func NewForecaster(
	source repository.PriceSource,
	factory AdapterFactory,
	reg *registry.Registry,
	cp *conformal.Predictor,
	calibrations *Calibrations,
	retriever service.AnalogueRetriever,
	fc *cache.ForecastCache,
	served *ServedLog,
	metrics repository.Metrics,
	log *logger.Logger,
) *Forecaster {
	return &Forecaster{
		source:       source,
		factory:      factory,
		registry:     reg,
		conformal:    cp,
		calibrations: calibrations,
		retriever:    retriever,
		cache:        fc,
		served:       served,
		metrics:      metrics,
		log:          log,
		period:       "1y",
	}
}

// Forecast rolls the promoted model forward horizon steps. Intervals
// are attached only when coverage is requested and the calibration set
// is sufficient; analogue matches only when analogues > 0. Neither
// ever changes the point forecast.
//
// coverage acts as an on/off gate: intervals are always produced at
// the calibration set's training-time target coverage, and the
// forecast's Coverage field discloses that actual value.
func (f *Forecaster) Forecast(ctx context.Context, ticker, architecture string, horizon int, coverage float64, analogues int) (*models.Forecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d must be positive", horizon)
	}

	version := f.registry.Current(architecture)
	if version == nil {
		return nil, fmt.Errorf("%w for architecture %s", ErrNoPromotedVersion, architecture)
	}

	if cached, ok := f.cache.Get(ticker, architecture, horizon, coverage, analogues); ok && cached.VersionID == version.ID {
		return cached, nil
	}

	started := time.Now()
	artifact, err := f.registry.LoadArtifact(ctx, version)
	if err != nil {
		return nil, err
	}

	history, err := f.source.FetchHistory(ctx, ticker, f.period)
	if err != nil {
		return nil, err
	}
	seqLen := artifact.Handle.SequenceLength
	if len(history) < seqLen {
		return nil, &models.InsufficientDataError{Needed: seqLen, Got: len(history)}
	}

	adapter, err := f.factory.For(architecture)
	if err != nil {
		return nil, err
	}

	scaledPoints, err := f.rollout(ctx, adapter, artifact, history, horizon)
	if err != nil {
		return nil, err
	}
	points := preprocess.Unscale(scaledPoints, artifact.Scale)

	forecast := &models.Forecast{
		Ticker:       ticker,
		Architecture: architecture,
		VersionID:    version.ID,
		Points:       points,
		GeneratedAt:  time.Now().UTC(),
	}

	if coverage > 0 {
		f.attachIntervals(forecast, architecture, version.ID, points)
		if len(forecast.Intervals) > 0 && f.served != nil {
			f.served.Put(ticker, architecture, version.ID, forecast.Intervals[0])
		}
	}
	if analogues > 0 {
		query := history[len(history)-seqLen:]
		matches := f.retriever.Retrieve(query, analogues)
		forecast.Analogues = matches
		forecast.Summary = analogue.Summarize(matches)
	}

	f.metrics.RecordForecast(architecture)
	f.metrics.RecordLatency("forecast", time.Since(started).Seconds())
	if err := f.cache.Set(forecast, horizon, coverage, analogues); err != nil {
		f.log.Warn("cache forecast", logger.Error(err))
	}
	return forecast, nil
}

// rollout performs iterative one-step-ahead prediction: each predicted
// value is appended to the input window for the next step.
func (f *Forecaster) rollout(ctx context.Context, adapter service.ModelAdapter, artifact *models.Artifact, history []float64, horizon int) ([]float64, error) {
	seqLen := artifact.Handle.SequenceLength
	scaled := preprocess.Apply(history, artifact.Scale)

	window := make([]float64, seqLen)
	copy(window, scaled[len(scaled)-seqLen:])

	out := make([]float64, 0, horizon)
	for step := 0; step < horizon; step++ {
		preds, err := adapter.Predict(ctx, artifact.Handle, []models.Window{{Values: window}})
		if err != nil {
			return nil, fmt.Errorf("rollout step %d: %w", step, err)
		}
		next := preds[0]
		out = append(out, next)
		window = append(window[1:], next)
	}
	return out, nil
}

// attachIntervals adds conformal bands when the calibration allows it.
// Insufficient calibration omits the intervals rather than guessing.
func (f *Forecaster) attachIntervals(forecast *models.Forecast, architecture, versionID string, points []float64) {
	set := f.calibrations.Get(architecture, versionID)
	if set == nil {
		return
	}
	intervals := make([]models.Interval, 0, len(points))
	for _, p := range points {
		iv, err := f.conformal.Interval(p, set)
		if err != nil {
			var insufficient *models.CalibrationInsufficientError
			if !errors.As(err, &insufficient) {
				f.log.Warn("conformal interval", logger.Error(err))
			}
			return
		}
		intervals = append(intervals, iv)
	}
	forecast.Intervals = intervals
	forecast.Coverage = set.TargetCoverage
}
