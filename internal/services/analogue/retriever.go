package analogue

import (
	"math"
	"sort"
	"sync"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/service"
	"StockCast/internal/services/features"
)

// DefaultThreshold is the minimum cosine similarity a segment needs to
// count as an analogue at all.
const DefaultThreshold = 0.6

// Retriever is an append-only in-memory index of historical segments,
// matched by cosine similarity over their feature summaries. Matches
// are advisory forecast context; nothing here ever touches the point
// forecast.
type Retriever struct {
	threshold float64

	mu       sync.RWMutex
	segments []models.HistoricalSegment
}

type Option func(*Retriever)

func WithThreshold(t float64) Option {
	return func(r *Retriever) { r.threshold = t }
}

func New(opts ...Option) *Retriever {
	r := &Retriever{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add indexes one segment. Missing feature summaries are computed from
// the window so callers can hand over raw slices.
func (r *Retriever) Add(segment models.HistoricalSegment) {
	if segment.Features == (models.FeatureSummary{}) && len(segment.Window) > 0 {
		segment.Features = features.Summarize(segment.Window)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, segment)
}

// Retrieve returns up to k segments most similar to the query window,
// descending by similarity, dropping anything below the threshold.
func (r *Retriever) Retrieve(query []float64, k int) []models.AnalogueMatch {
	if len(query) == 0 || k <= 0 {
		return nil
	}
	queryVec := features.Summarize(query).Vector()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]models.AnalogueMatch, 0, len(r.segments))
	for _, seg := range r.segments {
		sim := cosine(queryVec, seg.Features.Vector())
		if math.IsNaN(sim) || sim < r.threshold {
			continue
		}
		matches = append(matches, models.AnalogueMatch{
			SegmentID:  seg.ID,
			Ticker:     seg.Ticker,
			Period:     seg.Period,
			Similarity: sim,
			Outcome:    seg.Outcome,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Len reports the index size.
func (r *Retriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.segments)
}

// Summarize aggregates matches for forecast metadata.
func Summarize(matches []models.AnalogueMatch) *models.AnalogueSummary {
	if len(matches) == 0 {
		return nil
	}

	s := &models.AnalogueSummary{
		Count:         len(matches),
		MaxSimilarity: matches[0].Similarity,
		MinSimilarity: matches[0].Similarity,
	}
	seen := make(map[string]bool)
	sum := 0.0
	for _, m := range matches {
		sum += m.Similarity
		if m.Similarity > s.MaxSimilarity {
			s.MaxSimilarity = m.Similarity
		}
		if m.Similarity < s.MinSimilarity {
			s.MinSimilarity = m.Similarity
		}
		if m.Ticker != "" && !seen[m.Ticker] {
			seen[m.Ticker] = true
			s.Tickers = append(s.Tickers, m.Ticker)
		}
	}
	s.AvgSimilarity = sum / float64(len(matches))
	return s
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ service.AnalogueRetriever = (*Retriever)(nil)
