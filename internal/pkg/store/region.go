package store

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type RegionStore interface {
	UpsertRegion(ctx context.Context, region *domain.Region) (int64, error)
	GetRegionByCode(ctx context.Context, code string) (*domain.Region, error)
	ListRegions(ctx context.Context) ([]*domain.Region, error)
}

var regionsColumns = []string{"id", "code", "name", "latitude", "longitude", "created_at"}

func (s *store) UpsertRegion(ctx context.Context, region *domain.Region) (int64, error) {
	query := s.builder().Insert(tableRegions).
		Columns(regionsColumns[1:]...).
		Values(region.Code, region.Name, region.Latitude, region.Longitude, time.Now().UTC()).
		Suffix(`on conflict (code) do update set name=excluded.name, latitude=excluded.latitude, longitude=excluded.longitude returning id`)

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

// GetRegionByCode matches the code case-insensitively.
func (s *store) GetRegionByCode(ctx context.Context, code string) (*domain.Region, error) {
	query := s.builder().Select(regionsColumns...).
		From(tableRegions).
		Where(sq.Expr("LOWER(code) = ?", strings.ToLower(code))).
		OrderBy("id").
		Limit(1)

	var selected domain.Region
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return &selected, nil
}

func (s *store) ListRegions(ctx context.Context) ([]*domain.Region, error) {
	query := s.builder().Select(regionsColumns...).
		From(tableRegions).
		OrderBy("name, code")

	var selected []*domain.Region
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}
