package models

import "time"

// CalibrationSet holds held-out absolute residuals for one
// ModelVersion plus the adaptive-coverage state. Invalidated and
// rebuilt whenever that version is replaced. Alpha is nudged by
// explicit Observe calls, never by a background timer.
type CalibrationSet struct {
	VersionID      string    `json:"version_id"`
	Residuals      []float64 `json:"residuals"` // sorted ascending
	TargetCoverage float64   `json:"target_coverage"`
	Alpha          float64   `json:"alpha"` // effective miscoverage level, adapted online
	Observed       int       `json:"observed"`
	Covered        int       `json:"covered"`
	CalibratedAt   time.Time `json:"calibrated_at"`
}

// EmpiricalCoverage is the observed long-run coverage so far, or the
// target when nothing has been observed yet.
func (c *CalibrationSet) EmpiricalCoverage() float64 {
	if c.Observed == 0 {
		return c.TargetCoverage
	}
	return float64(c.Covered) / float64(c.Observed)
}
