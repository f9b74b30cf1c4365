package store

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type RestaurantStore interface {
	InsertRestaurant(ctx context.Context, r *domain.Restaurant) (int64, error)
	UpsertRestaurantByExternalID(ctx context.Context, r *domain.Restaurant) (int64, error)
	GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error)
	ListRestaurantsByIDs(ctx context.Context, ids []int64) ([]*domain.Restaurant, error)
	ListActiveRestaurantIDsByLocation(ctx context.Context, opts LocationFilterOpts) ([]int64, error)
	ListRestaurantsWithoutEmail(ctx context.Context, limit uint64) ([]*domain.Restaurant, error)
	UpdateRestaurantEmail(ctx context.Context, id int64, email string) error
	SetRestaurantExcluded(ctx context.Context, id int64, excluded bool, reason string) error
}

// LocationFilterOpts selects restaurants whose area code or city matches.
// Comparison is case-insensitive.
type LocationFilterOpts struct {
	AreaCode string
	Cities   []string
}

var restaurantColumns = []string{
	"id", "external_id", "name", "city", "area_code", "country", "latitude", "longitude", "cuisine",
	"price_level", "website", "email", "is_active", "is_excluded", "exclusion_reason", "created_at", "updated_at",
}

func (s *store) InsertRestaurant(ctx context.Context, r *domain.Restaurant) (int64, error) {
	now := time.Now().UTC()
	query := s.builder().Insert(tableRestaurants).
		Columns(restaurantColumns[1:]...).
		Values(r.ExternalID, r.Name, r.City, r.AreaCode, r.Country, r.Latitude, r.Longitude, r.Cuisine,
			r.PriceLevel, r.Website, r.Email, r.IsActive, r.IsExcluded, r.ExclusionReason, now, now).
		Suffix("RETURNING id")

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

// UpsertRestaurantByExternalID refreshes listing fields of an imported restaurant.
// Flags owned by admins (is_active, is_excluded) are kept as they are.
func (s *store) UpsertRestaurantByExternalID(ctx context.Context, r *domain.Restaurant) (int64, error) {
	now := time.Now().UTC()
	query := s.builder().Insert(tableRestaurants).
		Columns(restaurantColumns[1:]...).
		Values(r.ExternalID, r.Name, r.City, r.AreaCode, r.Country, r.Latitude, r.Longitude, r.Cuisine,
			r.PriceLevel, r.Website, r.Email, r.IsActive, r.IsExcluded, r.ExclusionReason, now, now).
		Suffix(`
on conflict (external_id)
do update
set
	name = excluded.name,
	city = excluded.city,
	area_code = excluded.area_code,
	country = excluded.country,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	price_level = excluded.price_level,
	website = excluded.website,
	updated_at = excluded.updated_at
returning id`)

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

func (s *store) GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error) {
	query := s.builder().Select(restaurantColumns...).
		From(tableRestaurants).
		Where(sq.Eq{"id": id})

	var selected domain.Restaurant
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return &selected, nil
}

func (s *store) ListRestaurantsByIDs(ctx context.Context, ids []int64) ([]*domain.Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := s.builder().Select(restaurantColumns...).
		From(tableRestaurants).
		Where(sq.Eq{"id": ids}).
		OrderBy("id")

	var selected []*domain.Restaurant
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) ListActiveRestaurantIDsByLocation(ctx context.Context, opts LocationFilterOpts) ([]int64, error) {
	match := sq.Or{}
	if opts.AreaCode != "" {
		match = append(match, sq.Expr("LOWER(area_code) = ?", strings.ToLower(opts.AreaCode)))
	}
	for _, city := range opts.Cities {
		if city == "" {
			continue
		}
		match = append(match, sq.Expr("LOWER(city) = ?", strings.ToLower(city)))
	}
	if len(match) == 0 {
		return nil, nil
	}

	query := s.builder().Select("id").
		From(tableRestaurants).
		Where(sq.Eq{"is_active": true}).
		Where(match).
		OrderBy("id")

	var ids []int64
	if err := s.pool.Selectx(ctx, &ids, query); err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

func (s *store) ListRestaurantsWithoutEmail(ctx context.Context, limit uint64) ([]*domain.Restaurant, error) {
	query := s.builder().Select(restaurantColumns...).
		From(tableRestaurants).
		Where(sq.And{
			sq.Eq{"is_active": true},
			sq.Eq{"email": ""},
			sq.NotEq{"website": ""},
		}).
		OrderBy("id").
		Limit(limit)

	var selected []*domain.Restaurant
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) UpdateRestaurantEmail(ctx context.Context, id int64, email string) error {
	query := s.builder().Update(tableRestaurants).
		Set("email", email).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	_, err := s.pool.Execx(ctx, query)
	return wrapErr(err)
}

func (s *store) SetRestaurantExcluded(ctx context.Context, id int64, excluded bool, reason string) error {
	query := s.builder().Update(tableRestaurants).
		Set("is_excluded", excluded).
		Set("exclusion_reason", reason).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	_, err := s.pool.Execx(ctx, query)
	return wrapErr(err)
}
