package usecase

import (
	"sync"

	"StockCast/internal/domain/models"
)

// Calibrations holds the live conformal state per architecture. One
// promoted version per architecture means one set per architecture;
// promotion replaces the set, demotion invalidates it.
type Calibrations struct {
	mu   sync.RWMutex
	sets map[string]*models.CalibrationSet
}

func NewCalibrations() *Calibrations {
	return &Calibrations{sets: make(map[string]*models.CalibrationSet)}
}

// Set installs a fresh calibration set for the architecture.
func (c *Calibrations) Set(architecture string, set *models.CalibrationSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[architecture] = set
}

// Get returns the current set if it belongs to versionID, nil
// otherwise. A stale set must never produce intervals for a newer
// version.
func (c *Calibrations) Get(architecture, versionID string) *models.CalibrationSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := c.sets[architecture]
	if set == nil || set.VersionID != versionID {
		return nil
	}
	return set
}

// Current returns whatever set the architecture has, regardless of
// version. Used by the feedback loop where the set itself carries the
// version id.
func (c *Calibrations) Current(architecture string) *models.CalibrationSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets[architecture]
}
