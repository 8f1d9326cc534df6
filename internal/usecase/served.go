package usecase

import (
	"sync"

	"StockCast/internal/domain/models"
)

// servedEntry is one outstanding interval awaiting its realized price.
type servedEntry struct {
	architecture string
	versionID    string
	interval     models.Interval
}

// ServedLog tracks the most recent one-step interval served per
// ticker so the collector can feed realized outcomes back into the
// conformal state. At most one pending entry per ticker: serving again
// before the outcome arrives replaces the pending interval.
type ServedLog struct {
	mu      sync.Mutex
	pending map[string]servedEntry
}

func NewServedLog() *ServedLog {
	return &ServedLog{pending: make(map[string]servedEntry)}
}

// Put registers the next-step interval served for ticker.
func (s *ServedLog) Put(ticker, architecture, versionID string, interval models.Interval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[ticker] = servedEntry{architecture: architecture, versionID: versionID, interval: interval}
}

// Take removes and returns the pending entry for ticker, if any.
func (s *ServedLog) Take(ticker string) (servedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[ticker]
	if ok {
		delete(s.pending, ticker)
	}
	return e, ok
}
