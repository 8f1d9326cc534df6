package models

import "time"

// VersionState is the promotion state of a ModelVersion. Promoted and
// Rejected are terminal; a rejected version never serves without a
// fresh TrainingRun producing a new candidate.
type VersionState string

const (
	VersionCandidate VersionState = "candidate"
	VersionPromoted  VersionState = "promoted"
	VersionRejected  VersionState = "rejected"
)

// ModelVersion is a trained artifact plus the metrics it earned.
// Versions are never deleted, only superseded; the registry is the
// sole owner.
type ModelVersion struct {
	ID           string         `json:"id"`
	Architecture string         `json:"architecture"`
	Ticker       string         `json:"ticker"`
	RunID        string         `json:"run_id"`
	ArtifactRef  string         `json:"artifact_ref"`
	Metrics      MetricSnapshot `json:"metrics"`
	State        VersionState   `json:"state"`
	Promoted     bool           `json:"promoted"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ModelHandle references a fitted model in a form adapters can predict
// with. Payload is engine-specific and opaque to the pipeline.
type ModelHandle struct {
	Architecture   string `json:"architecture"`
	SequenceLength int    `json:"sequence_length"`
	Frozen         bool   `json:"frozen"` // pretrained zero-shot weights, fit was a no-op
	Payload        []byte `json:"payload,omitempty"`
}

// Artifact is what the registry serializes per version: the handle and
// the scale parameters it must be served with.
type Artifact struct {
	Handle ModelHandle `json:"handle"`
	Scale  ScaleParams `json:"scale"`
}
