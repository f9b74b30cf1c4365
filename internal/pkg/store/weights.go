package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
)

type WeightsStore interface {
	GetActiveWeights(ctx context.Context) (*domain.RankingWeights, error)
	SaveWeights(ctx context.Context, w *domain.RankingWeights) (int64, error)
	ActivateWeights(ctx context.Context, name string) error
}

var weightsColumns = []string{
	"id", "name", "google_weight", "yelp_weight", "tripadvisor_weight", "custom_providers", "user_review_weight",
	"sentiment_weight", "text_weight", "data_quality_weight", "min_reviews_threshold", "recency_decay_days",
	"is_active", "created_at",
}

func (s *store) GetActiveWeights(ctx context.Context) (*domain.RankingWeights, error) {
	query := s.builder().Select(weightsColumns...).
		From(tableRankingWeights).
		Where(sq.Eq{"is_active": true}).
		Limit(1)

	var selected domain.RankingWeights
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		err = wrapErr(err)
		if errors.Is(err, constants.ErrDBNotFound) {
			return nil, constants.ErrNoActiveWeights
		}
		return nil, err
	}
	return &selected, nil
}

// SaveWeights upserts a named configuration without touching which one is active.
func (s *store) SaveWeights(ctx context.Context, w *domain.RankingWeights) (int64, error) {
	query := s.builder().Insert(tableRankingWeights).
		Columns(weightsColumns[1:12]...).
		Columns("created_at").
		Values(w.Name, w.GoogleWeight, w.YelpWeight, w.TripAdvisorWeight, w.CustomProviders, w.UserReviewWeight,
			w.SentimentWeight, w.TextWeight, w.DataQualityWeight, w.MinReviewsThreshold, w.RecencyDecayDays,
			time.Now().UTC()).
		Suffix(`
on conflict (name)
do update
set
	google_weight = excluded.google_weight,
	yelp_weight = excluded.yelp_weight,
	tripadvisor_weight = excluded.tripadvisor_weight,
	custom_providers = excluded.custom_providers,
	user_review_weight = excluded.user_review_weight,
	sentiment_weight = excluded.sentiment_weight,
	text_weight = excluded.text_weight,
	data_quality_weight = excluded.data_quality_weight,
	min_reviews_threshold = excluded.min_reviews_threshold,
	recency_decay_days = excluded.recency_decay_days
returning id`)

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

// ActivateWeights makes the named configuration the only active one.
func (s *store) ActivateWeights(ctx context.Context, name string) error {
	return s.pool.InTx(ctx, func(ctx context.Context) error {
		deactivate := s.builder().Update(tableRankingWeights).
			Set("is_active", false).
			Where(sq.Eq{"is_active": true})
		if _, err := s.pool.Execx(ctx, deactivate); err != nil {
			return fmt.Errorf("deactivate: %w", wrapErr(err))
		}

		activate := s.builder().Update(tableRankingWeights).
			Set("is_active", true).
			Where(sq.Eq{"name": name})
		n, err := s.pool.Execx(ctx, activate)
		if err != nil {
			return fmt.Errorf("activate: %w", wrapErr(err))
		}
		if n == 0 {
			return constants.ErrDBNotFound
		}
		return nil
	})
}
