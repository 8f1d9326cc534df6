package models

import "math"

// MetricSnapshot holds the error and agreement statistics computed once
// per evaluated split. MAPE, SMAPE and MASE are nil when their
// denominator makes them undefined rather than carrying an Inf.
type MetricSnapshot struct {
	RMSE              float64  `json:"rmse"`
	MAE               float64  `json:"mae"`
	MAPE              *float64 `json:"mape,omitempty"`
	SMAPE             *float64 `json:"smape,omitempty"`
	MASE              *float64 `json:"mase,omitempty"`
	R2                float64  `json:"r2"`
	ToleranceAccuracy float64  `json:"tolerance_accuracy"` // percent, 0..100
	Tolerance         float64  `json:"tolerance"`          // relative-error bound the accuracy was computed with
}

// Valid reports whether every populated value is finite.
func (m MetricSnapshot) Valid() bool {
	for _, v := range []float64{m.RMSE, m.MAE, m.R2, m.ToleranceAccuracy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, p := range []*float64{m.MAPE, m.SMAPE, m.MASE} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return false
		}
	}
	return true
}
