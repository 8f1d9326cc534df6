package models

import "time"

// RunOutcome is the sealed status of a TrainingRun.
type RunOutcome string

const (
	RunCompleted RunOutcome = "completed"
	RunFailed    RunOutcome = "failed"
	RunDiverged  RunOutcome = "diverged"
	RunCancelled RunOutcome = "cancelled"
)

// TrainingRun records one fit. Created when the fit begins, sealed when
// it completes or fails; append-only afterwards.
type TrainingRun struct {
	ID           string            `json:"id"`
	Architecture string            `json:"architecture"`
	Ticker       string            `json:"ticker"`
	Hyperparams  HyperparameterSet `json:"hyperparams"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  time.Time         `json:"completed_at"`
	Metrics      *MetricSnapshot   `json:"metrics,omitempty"`
	Outcome      RunOutcome        `json:"outcome"`
	Error        string            `json:"error,omitempty"`
	VersionID    string            `json:"version_id,omitempty"`
	Promoted     bool              `json:"promoted"`
}
