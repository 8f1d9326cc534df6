package features

import (
	"math"

	"StockCast/internal/domain/models"
)

// Returns computes simple returns r_t = (p_t - p_{t-1}) / p_{t-1}.
// It returns a slice of length len(series)-1, or nil if insufficient data.
func Returns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (series[i]-prev)/prev)
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation.
func Std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)))
}

// TrendSlope is the total relative move over the window: (last-first)/first.
func TrendSlope(series []float64) float64 {
	if len(series) < 2 || series[0] == 0 {
		return 0
	}
	return (series[len(series)-1] - series[0]) / series[0]
}

// MaxDrawdown is the largest peak-to-trough relative decline.
func MaxDrawdown(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	peak := series[0]
	worst := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return math.Abs(worst)
}

// Skewness of the return distribution. Zero below 3 samples.
func Skewness(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	m := Mean(returns)
	s := Std(returns) + 1e-8
	sum := 0.0
	for _, r := range returns {
		z := (r - m) / s
		sum += z * z * z
	}
	return sum / float64(len(returns))
}

// Kurtosis (excess) of the return distribution. Zero below 4 samples.
func Kurtosis(returns []float64) float64 {
	if len(returns) < 4 {
		return 0
	}
	m := Mean(returns)
	s := Std(returns) + 1e-8
	sum := 0.0
	for _, r := range returns {
		z := (r - m) / s
		sum += z * z * z * z
	}
	return sum/float64(len(returns)) - 3
}

// Summarize builds the compact shape descriptor the analogue index is
// keyed by.
func Summarize(series []float64) models.FeatureSummary {
	if len(series) < 2 {
		return models.FeatureSummary{}
	}
	rets := Returns(series)
	return models.FeatureSummary{
		Mean:        Mean(series),
		Std:         Std(series),
		Volatility:  Std(rets),
		TrendSlope:  TrendSlope(series),
		MaxDrawdown: MaxDrawdown(series),
		Skewness:    Skewness(rets),
		Kurtosis:    Kurtosis(rets),
	}
}
