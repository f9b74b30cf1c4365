package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type SourceRatingStore interface {
	UpsertSourceRating(ctx context.Context, rating *domain.SourceRating) error
	ListSourceRatings(ctx context.Context, restaurantID int64) ([]*domain.SourceRating, error)
}

var sourceRatingColumns = []string{"id", "restaurant_id", "source", "avg_rating", "review_count", "data_quality", "updated_at"}

func (s *store) UpsertSourceRating(ctx context.Context, rating *domain.SourceRating) error {
	query := s.builder().Insert(tableSourceRatings).
		Columns(sourceRatingColumns[1:]...).
		Values(rating.RestaurantID, rating.Source, rating.AvgRating, rating.ReviewCount, rating.DataQuality, time.Now().UTC()).
		Suffix(`
on conflict (restaurant_id, source)
do update
set
	avg_rating = excluded.avg_rating,
	review_count = excluded.review_count,
	data_quality = excluded.data_quality,
	updated_at = excluded.updated_at`)

	_, err := s.pool.Execx(ctx, query)
	return wrapErr(err)
}

func (s *store) ListSourceRatings(ctx context.Context, restaurantID int64) ([]*domain.SourceRating, error) {
	query := s.builder().Select(sourceRatingColumns...).
		From(tableSourceRatings).
		Where(sq.Eq{"restaurant_id": restaurantID}).
		OrderBy("source")

	var selected []*domain.SourceRating
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}
