package evaluation

import (
	"math"
	"sort"

	"StockCast/internal/domain/models"
)

// Options configures an evaluation. Tolerance is a required knob, never
// a constant baked in here: snapshots computed with different
// tolerances are not comparable and the registry relies on comparing
// like with like.
type Options struct {
	Tolerance float64   // relative-error bound for tolerance accuracy
	Train     []float64 // training series for the MASE naive baseline; optional
}

const epsDenominator = 1e-8

// Evaluate computes the MetricSnapshot for one evaluated split. All
// arithmetic is float64. Non-finite predictions count as incorrect for
// tolerance accuracy and are excluded pairwise from the error metrics
// rather than poisoning them.
func Evaluate(actual, predicted []float64, opts Options) models.MetricSnapshot {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}

	snap := models.MetricSnapshot{Tolerance: opts.Tolerance}
	if n == 0 {
		return snap
	}

	// Tolerance accuracy over ALL pairs: a NaN/Inf forecast is a miss.
	correct := 0
	for i := 0; i < n; i++ {
		a, p := actual[i], predicted[i]
		if !isFinite(p) || !isFinite(a) {
			continue
		}
		denom := a
		if denom == 0 {
			denom = epsDenominator
		}
		if math.Abs((a-p)/denom) <= opts.Tolerance {
			correct++
		}
	}
	snap.ToleranceAccuracy = 100 * float64(correct) / float64(n)

	// Error metrics over finite pairs only.
	var as, ps []float64
	for i := 0; i < n; i++ {
		if isFinite(actual[i]) && isFinite(predicted[i]) {
			as = append(as, actual[i])
			ps = append(ps, predicted[i])
		}
	}
	if len(as) == 0 {
		return snap
	}

	var sse, sae float64
	for i := range as {
		d := as[i] - ps[i]
		sse += d * d
		sae += math.Abs(d)
	}
	m := float64(len(as))
	snap.RMSE = math.Sqrt(sse / m)
	snap.MAE = sae / m
	snap.R2 = rSquared(as, ps)
	snap.MAPE = mape(as, ps)
	snap.SMAPE = smape(as, ps)
	snap.MASE = mase(as, ps, opts.Train)
	return snap
}

// Coverage is the percentage of actual values falling inside
// [lower, upper]. Used to audit conformal intervals.
func Coverage(actual, lower, upper []float64) float64 {
	n := len(actual)
	if len(lower) < n {
		n = len(lower)
	}
	if len(upper) < n {
		n = len(upper)
	}
	if n == 0 {
		return 0
	}
	in := 0
	for i := 0; i < n; i++ {
		if actual[i] >= lower[i] && actual[i] <= upper[i] {
			in++
		}
	}
	return 100 * float64(in) / float64(n)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func rSquared(actual, predicted []float64) float64 {
	m := 0.0
	for _, a := range actual {
		m += a
	}
	m /= float64(len(actual))

	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		t := actual[i] - m
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// mape returns nil when any actual is too close to zero to divide by.
func mape(actual, predicted []float64) *float64 {
	sum := 0.0
	for i := range actual {
		if math.Abs(actual[i]) < epsDenominator {
			return nil
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	v := 100 * sum / float64(len(actual))
	return &v
}

// smape is bounded 0..200; nil when a pairwise denominator vanishes.
func smape(actual, predicted []float64) *float64 {
	sum := 0.0
	for i := range actual {
		denom := (math.Abs(actual[i]) + math.Abs(predicted[i])) / 2
		if denom < epsDenominator {
			return nil
		}
		sum += math.Abs(actual[i]-predicted[i]) / denom
	}
	v := 100 * sum / float64(len(actual))
	return &v
}

// mase normalizes MAE by the mean absolute first difference of the
// naive one-step-ahead baseline. Flagged invalid (nil) when that
// denominator is zero, e.g. a constant series.
func mase(actual, predicted, train []float64) *float64 {
	base := train
	if len(base) < 2 {
		base = actual
	}
	if len(base) < 2 {
		return nil
	}
	naive := 0.0
	for i := 1; i < len(base); i++ {
		naive += math.Abs(base[i] - base[i-1])
	}
	naive /= float64(len(base) - 1)
	if naive == 0 {
		return nil
	}
	sae := 0.0
	for i := range actual {
		sae += math.Abs(actual[i] - predicted[i])
	}
	v := (sae / float64(len(actual))) / naive
	return &v
}

// Quantile returns the q-quantile of xs (0 <= q <= 1) using the
// nearest-rank method on a sorted copy.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
