package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"StockCast/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsStarted      *prometheus.CounterVec
	runsCompleted    *prometheus.CounterVec
	promotions       *prometheus.CounterVec
	promotedAccuracy *prometheus.GaugeVec
	forecasts        *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_training_runs_started_total",
				Help: "Total number of training runs started",
			},
			[]string{"architecture"},
		),
		runsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_training_runs_completed_total",
				Help: "Total number of training runs sealed, by outcome",
			},
			[]string{"architecture", "outcome"},
		),
		promotions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_promotions_total",
				Help: "Promotion decisions made by the model registry",
			},
			[]string{"architecture", "decision"},
		),
		promotedAccuracy: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_promoted_tolerance_accuracy",
				Help: "Tolerance accuracy of the currently promoted version",
			},
			[]string{"architecture"},
		),
		forecasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecasts_total",
				Help: "Forecasts served from promoted versions",
			},
			[]string{"architecture"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"operation"},
		),
	}
}

// RecordRunStarted counts a run entering the fit stage.
func (r *Recorder) RecordRunStarted(architecture string) {
	r.runsStarted.WithLabelValues(architecture).Inc()
}

// RecordRunCompleted counts a sealed run by outcome.
func (r *Recorder) RecordRunCompleted(architecture string, outcome models.RunOutcome) {
	r.runsCompleted.WithLabelValues(architecture, string(outcome)).Inc()
}

// RecordPromotion counts a registry decision.
func (r *Recorder) RecordPromotion(architecture string, promoted bool) {
	decision := "rejected"
	if promoted {
		decision = "promoted"
	}
	r.promotions.WithLabelValues(architecture, decision).Inc()
}

// RecordPromotedAccuracy tracks the serving version's headline metric.
func (r *Recorder) RecordPromotedAccuracy(architecture string, accuracy float64) {
	r.promotedAccuracy.WithLabelValues(architecture).Set(accuracy)
}

// RecordForecast counts a served forecast.
func (r *Recorder) RecordForecast(architecture string) {
	r.forecasts.WithLabelValues(architecture).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records an operation duration.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
