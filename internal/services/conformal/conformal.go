package conformal

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"StockCast/internal/domain/models"
)

// Alpha bounds for adaptive conformal inference. The effective
// miscoverage level never leaves this range however the error stream
// pushes it.
const (
	minAlpha = 0.01
	maxAlpha = 0.5
)

// DefaultMinResiduals is the floor below which intervals are refused.
const DefaultMinResiduals = 20

// Predictor produces distribution-free prediction intervals by split
// conformal calibration, with the miscoverage level adapted online
// from observed outcomes.
type Predictor struct {
	minResiduals int
	learningRate float64

	mu sync.Mutex
}

// Option configures a Predictor.
type Option func(*Predictor)

func WithMinResiduals(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.minResiduals = n
		}
	}
}

func WithLearningRate(lr float64) Option {
	return func(p *Predictor) {
		if lr > 0 {
			p.learningRate = lr
		}
	}
}

func New(opts ...Option) *Predictor {
	p := &Predictor{
		minResiduals: DefaultMinResiduals,
		learningRate: 0.01,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Calibrate builds a fresh CalibrationSet from held-out predictions.
// Residuals are absolute errors, sorted ascending; non-finite pairs
// are dropped rather than poisoning the quantile.
func (p *Predictor) Calibrate(versionID string, predicted, actual []float64, targetCoverage float64) (*models.CalibrationSet, error) {
	if len(predicted) != len(actual) {
		return nil, &models.ShapeMismatchError{Expected: len(actual), Got: len(predicted)}
	}
	if targetCoverage <= 0 || targetCoverage >= 1 {
		return nil, fmt.Errorf("target coverage %v outside (0, 1)", targetCoverage)
	}

	residuals := make([]float64, 0, len(actual))
	for i := range actual {
		r := math.Abs(actual[i] - predicted[i])
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		residuals = append(residuals, r)
	}
	sort.Float64s(residuals)

	return &models.CalibrationSet{
		VersionID:      versionID,
		Residuals:      residuals,
		TargetCoverage: targetCoverage,
		Alpha:          1 - targetCoverage,
		CalibratedAt:   time.Now().UTC(),
	}, nil
}

// Interval returns the calibrated band around one point forecast. The
// width is the finite-sample quantile of the residuals at the set's
// current (possibly adapted) alpha.
func (p *Predictor) Interval(point float64, set *models.CalibrationSet) (models.Interval, error) {
	if set == nil || len(set.Residuals) < p.minResiduals {
		got := 0
		if set != nil {
			got = len(set.Residuals)
		}
		return models.Interval{}, &models.CalibrationInsufficientError{Needed: p.minResiduals, Got: got}
	}

	width := finiteQuantile(set.Residuals, set.Alpha)
	return models.Interval{Lower: point - width, Upper: point + width}, nil
}

// Observe feeds one realized outcome back into the set. Adaptive
// conformal inference: widen (lower alpha) after a miss, tighten after
// a hit, in proportion to the target miscoverage.
func (p *Predictor) Observe(set *models.CalibrationSet, interval models.Interval, actual float64) {
	if set == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	covered := actual >= interval.Lower && actual <= interval.Upper
	set.Observed++
	if covered {
		set.Covered++
	}

	target := 1 - set.TargetCoverage
	miss := 0.0
	if !covered {
		miss = 1.0
	}
	set.Alpha = clamp(set.Alpha+p.learningRate*(target-miss), minAlpha, maxAlpha)
}

// finiteQuantile is the split-conformal quantile of sorted residuals:
// level (1+n)(1-alpha)/n, capped at 1.
func finiteQuantile(sorted []float64, alpha float64) float64 {
	n := len(sorted)
	level := float64(n+1) * (1 - alpha) / float64(n)
	if level >= 1 {
		return sorted[n-1]
	}
	idx := int(math.Ceil(level*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
