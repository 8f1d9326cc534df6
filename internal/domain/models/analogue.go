package models

import "time"

// FeatureSummary is the compact shape descriptor segments are indexed
// by. Similarity runs over these, not raw prices, so matching is
// scale-insensitive.
type FeatureSummary struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Volatility  float64 `json:"volatility"`
	TrendSlope  float64 `json:"trend_slope"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Skewness    float64 `json:"skewness"`
	Kurtosis    float64 `json:"kurtosis"`
}

// Vector returns the summary as a fixed-order feature vector.
func (f FeatureSummary) Vector() []float64 {
	return []float64{f.Mean, f.Std, f.Volatility, f.TrendSlope, f.MaxDrawdown, f.Skewness, f.Kurtosis}
}

// HistoricalSegment is one past window with its realized outcome,
// stored append-only in the analogue index.
type HistoricalSegment struct {
	ID       string         `json:"id"`
	Ticker   string         `json:"ticker"`
	Period   string         `json:"period,omitempty"`
	Window   []float64      `json:"window"`
	Outcome  float64        `json:"outcome"`
	Features FeatureSummary `json:"features"`
	AddedAt  time.Time      `json:"added_at"`
}

// AnalogueMatch is ephemeral: computed per query, never persisted.
// Matches are advisory forecast context only and never alter the
// adapter's point forecast.
type AnalogueMatch struct {
	SegmentID  string  `json:"segment_id"`
	Ticker     string  `json:"ticker"`
	Period     string  `json:"period,omitempty"`
	Similarity float64 `json:"similarity"`
	Outcome    float64 `json:"outcome"`
}

// AnalogueSummary aggregates the matches attached to a forecast.
type AnalogueSummary struct {
	Count         int      `json:"count"`
	AvgSimilarity float64  `json:"avg_similarity"`
	MaxSimilarity float64  `json:"max_similarity"`
	MinSimilarity float64  `json:"min_similarity"`
	Tickers       []string `json:"tickers,omitempty"`
}
