package preprocess

import (
	"StockCast/internal/domain/models"
)

// Windows slices series into fixed-length windows, each paired with its
// next-step target. It produces exactly len(series)-length windows.
// Pure; the returned windows own copies of the data.
func Windows(series []float64, length int) ([]models.Window, error) {
	if length < 2 || length >= len(series) {
		return nil, &models.InsufficientDataError{Needed: length + 1, Got: len(series)}
	}
	out := make([]models.Window, 0, len(series)-length)
	for i := length; i < len(series); i++ {
		vals := make([]float64, length)
		copy(vals, series[i-length:i])
		out = append(out, models.Window{Values: vals, Target: series[i]})
	}
	return out, nil
}

// Scale fits min-max parameters on the given slice ONLY and returns the
// scaled copy. Callers must fit on the training slice and apply the
// returned params to later data; never refit on validation or test.
func Scale(train []float64) ([]float64, models.ScaleParams, error) {
	if len(train) == 0 {
		return nil, models.ScaleParams{}, &models.InsufficientDataError{Needed: 1, Got: 0}
	}
	lo, hi := train[0], train[0]
	for _, v := range train {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	p := models.ScaleParams{Min: lo, Max: hi}
	return Apply(train, p), p, nil
}

// Apply maps values into [0,1] using previously fitted params. A
// degenerate constant fit maps everything to 0.5.
func Apply(values []float64, p models.ScaleParams) []float64 {
	out := make([]float64, len(values))
	span := p.Max - p.Min
	for i, v := range values {
		if span == 0 {
			out[i] = 0.5
			continue
		}
		out[i] = (v - p.Min) / span
	}
	return out
}

// Unscale inverts Apply back to price scale.
func Unscale(values []float64, p models.ScaleParams) []float64 {
	out := make([]float64, len(values))
	span := p.Max - p.Min
	for i, v := range values {
		if span == 0 {
			out[i] = p.Min
			continue
		}
		out[i] = v*span + p.Min
	}
	return out
}

// Split divides a series chronologically. trainFrac is the share of
// observations in the training slice; the remainder is the pinned
// held-out slice used for evaluation and conformal calibration.
func Split(series []float64, trainFrac float64) (train, holdout []float64) {
	if trainFrac <= 0 || trainFrac >= 1 {
		trainFrac = 0.8
	}
	idx := int(float64(len(series)) * trainFrac)
	if idx < 1 {
		idx = 1
	}
	if idx >= len(series) {
		idx = len(series) - 1
	}
	return series[:idx], series[idx:]
}

// SplitWindows divides windows chronologically with the same rule.
func SplitWindows(windows []models.Window, trainFrac float64) (train, holdout []models.Window) {
	if trainFrac <= 0 || trainFrac >= 1 {
		trainFrac = 0.8
	}
	idx := int(float64(len(windows)) * trainFrac)
	if idx < 1 {
		idx = 1
	}
	if idx >= len(windows) {
		idx = len(windows) - 1
	}
	return windows[:idx], windows[idx:]
}
