package usecase

import (
	"context"

	"StockCast/internal/domain/models"
	"StockCast/internal/registry"
)

// VersionLister answers version queries against the registry.
type VersionLister struct {
	registry *registry.Registry
}

func NewVersionLister(reg *registry.Registry) *VersionLister {
	return &VersionLister{registry: reg}
}

// List returns versions for an architecture, newest last, optionally
// filtered by ticker.
func (v *VersionLister) List(ctx context.Context, architecture, ticker string) ([]*models.ModelVersion, error) {
	versions, err := v.registry.List(ctx, architecture)
	if err != nil {
		return nil, err
	}
	if ticker == "" {
		return versions, nil
	}
	filtered := make([]*models.ModelVersion, 0, len(versions))
	for _, ver := range versions {
		if ver.Ticker == ticker {
			filtered = append(filtered, ver)
		}
	}
	return filtered, nil
}
