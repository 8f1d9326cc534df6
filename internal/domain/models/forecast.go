package models

import "time"

// Interval is a calibrated uncertainty band around one point forecast.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Forecast is the served output: the promoted version's point
// forecasts, optional conformal intervals, and optional analogue
// context attached as metadata.
type Forecast struct {
	Ticker       string           `json:"ticker"`
	Architecture string           `json:"architecture"`
	VersionID    string           `json:"version_id"`
	Points       []float64        `json:"points"`
	Intervals    []Interval       `json:"intervals,omitempty"`
	Coverage     float64          `json:"coverage,omitempty"`
	Analogues    []AnalogueMatch  `json:"analogues,omitempty"`
	Summary      *AnalogueSummary `json:"analogue_summary,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// BenchmarkEntry is one architecture's row in a comparison report.
// Stochastic training means single runs are noise; entries carry mean
// and spread over Repeats runs.
type BenchmarkEntry struct {
	Architecture     string  `json:"architecture"`
	Repeats          int     `json:"repeats"`
	RMSEMean         float64 `json:"rmse_mean"`
	RMSEStd          float64 `json:"rmse_std"`
	MAEMean          float64 `json:"mae_mean"`
	MAEStd           float64 `json:"mae_std"`
	AccuracyMean     float64 `json:"accuracy_mean"`
	AccuracyStd      float64 `json:"accuracy_std"`
	TrainDuration    float64 `json:"train_duration_seconds"`
	InferenceLatency float64 `json:"inference_latency_seconds"`
	Error            string  `json:"error,omitempty"`
}

// BenchmarkReport compares adapters over one identical split.
type BenchmarkReport struct {
	Ticker      string           `json:"ticker"`
	Period      string           `json:"period"`
	TrainSize   int              `json:"train_size"`
	TestSize    int              `json:"test_size"`
	Entries     []BenchmarkEntry `json:"entries"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// BacktestFold is one rolling-origin split: the index bounds it was
// trained and tested on, plus that fold's metrics. A failing fold keeps
// its row with the error so the rest of the report still comes back.
type BacktestFold struct {
	Fold       int             `json:"fold"`
	TrainStart int             `json:"train_start"`
	TrainEnd   int             `json:"train_end"`
	TestStart  int             `json:"test_start"`
	TestEnd    int             `json:"test_end"`
	Metrics    *MetricSnapshot `json:"metrics,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// BacktestReport is a walk-forward evaluation of one architecture: the
// model is retrained on each fold's training window and scored on the
// window that follows it. Aggregate pools predictions across folds.
type BacktestReport struct {
	Ticker       string          `json:"ticker"`
	Architecture string          `json:"architecture"`
	Period       string          `json:"period"`
	Strategy     string          `json:"strategy"`
	TrainSize    int             `json:"train_size"`
	TestSize     int             `json:"test_size"`
	StepSize     int             `json:"step_size"`
	Folds        []BacktestFold  `json:"folds"`
	Aggregate    *MetricSnapshot `json:"aggregate,omitempty"`
	MeanRMSE     float64         `json:"mean_rmse"`
	MeanMAE      float64         `json:"mean_mae"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
