package region

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/store"
)

type Store interface {
	store.RegionStore
	ListActiveRestaurantIDsByLocation(ctx context.Context, opts store.LocationFilterOpts) ([]int64, error)
}

type Service struct {
	store Store
}

func NewRegionService(store Store) *Service {
	return &Service{store: store}
}

// Resolve returns the active restaurants of a region. A restaurant belongs to
// the region when its area code equals the region code, or its city equals
// either the code or the region's display name, all case-insensitively.
// Import sources tag locations inconsistently, hence the three ways in.
// An unknown region is matched by its code alone; no match is an empty set.
func (s *Service) Resolve(ctx context.Context, regionCode string) ([]int64, error) {
	regionCode = strings.TrimSpace(regionCode)
	if regionCode == "" {
		return nil, nil
	}

	opts := store.LocationFilterOpts{
		AreaCode: regionCode,
		Cities:   []string{regionCode},
	}

	region, err := s.store.GetRegionByCode(ctx, regionCode)
	switch {
	case err == nil:
		if !strings.EqualFold(region.Name, regionCode) {
			opts.Cities = append(opts.Cities, region.Name)
		}
	case errors.Is(err, constants.ErrDBNotFound):
		logger.Debugf(ctx, "region %s is not registered, matching by code only", regionCode)
	default:
		return nil, fmt.Errorf("store.GetRegionByCode: %w", err)
	}

	ids, err := s.store.ListActiveRestaurantIDsByLocation(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store.ListActiveRestaurantIDsByLocation: %w", err)
	}

	return ids, nil
}

func (s *Service) ListRegions(ctx context.Context) ([]*domain.Region, error) {
	regions, err := s.store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListRegions: %w", err)
	}

	return regions, nil
}

func (s *Service) SaveRegion(ctx context.Context, region *domain.Region) (*domain.Region, error) {
	if strings.TrimSpace(region.Code) == "" || strings.TrimSpace(region.Name) == "" {
		return nil, fmt.Errorf("%w: region code and name are required", constants.ErrBadRequest)
	}

	id, err := s.store.UpsertRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("store.UpsertRegion: %w", err)
	}

	region.ID = id
	return region, nil
}
