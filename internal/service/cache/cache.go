package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
)

// BytesCache is the minimal byte-level backend a ForecastCache sits on.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// ForecastCache serves recent forecasts without re-running inference.
// Entries are keyed by the full request shape, (ticker, architecture,
// horizon, coverage, analogues), so a forecast cached without
// intervals is never served to a request that asked for them. Entries
// are invalidated by TTL; a promotion bumps the version id inside the
// payload so stale hits are detectable by callers.
type ForecastCache struct {
	backend BytesCache
	ttl     time.Duration
}

func NewForecastCache(backend BytesCache, ttl time.Duration) *ForecastCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ForecastCache{backend: backend, ttl: ttl}
}

func Key(ticker, architecture string, horizon int, coverage float64, analogues int) string {
	return fmt.Sprintf("forecast:%s:%s:%d:%g:%d", ticker, architecture, horizon, coverage, analogues)
}

func (c *ForecastCache) Get(ticker, architecture string, horizon int, coverage float64, analogues int) (*models.Forecast, bool) {
	b, ok, err := c.backend.GetBytes(Key(ticker, architecture, horizon, coverage, analogues))
	if err != nil || !ok {
		return nil, false
	}
	var f models.Forecast
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, false
	}
	return &f, true
}

// Set stores f under the request shape that produced it. coverage and
// analogues are the request parameters, not fields of f.
func (c *ForecastCache) Set(f *models.Forecast, horizon int, coverage float64, analogues int) error {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}
	return c.backend.SetBytes(Key(f.Ticker, f.Architecture, horizon, coverage, analogues), b, c.ttl)
}
