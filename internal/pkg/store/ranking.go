package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type RankingStore interface {
	GetRanking(ctx context.Context, restaurantID int64) (*domain.Ranking, error)
	InsertRanking(ctx context.Context, ranking *domain.Ranking) (int64, error)
	UpdateRankingScores(ctx context.Context, ranking *domain.Ranking) error
	ListRankScores(ctx context.Context) ([]*domain.RankScore, error)
	UpdateAutoRanks(ctx context.Context, ranks map[int64]int) error
	ListRankedRestaurants(ctx context.Context, opts ListRankedOpts) ([]*domain.RankedRestaurant, error)
	UpdateRankingFlags(ctx context.Context, restaurantIDs []int64, opts RankingFlagsOpts) (int64, error)
}

type ListRankedOpts struct {
	RestaurantIDs []int64
	OnlyPublished bool
	Limit         uint64
}

// RankingFlagsOpts sets only the non-nil fields.
type RankingFlagsOpts struct {
	IsPublished *bool
	IsFeatured  *bool
	IsPushed    *bool
	ManualRank  **int
	AdminNotes  *string
	At          time.Time
}

var rankingColumns = []string{
	"id", "restaurant_id", "composite_score", "avg_sentiment", "confidence", "total_reviews", "auto_rank",
	"manual_rank", "is_featured", "is_published", "is_pushed", "admin_notes", "last_computed_at", "published_at",
	"pushed_at",
}

func (s *store) GetRanking(ctx context.Context, restaurantID int64) (*domain.Ranking, error) {
	query := s.builder().Select(rankingColumns...).
		From(tableRankings).
		Where(sq.Eq{"restaurant_id": restaurantID})

	var selected domain.Ranking
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return &selected, nil
}

func (s *store) InsertRanking(ctx context.Context, r *domain.Ranking) (int64, error) {
	query := s.builder().Insert(tableRankings).
		Columns("restaurant_id", "composite_score", "avg_sentiment", "confidence", "total_reviews", "auto_rank",
			"is_featured", "is_published", "is_pushed", "admin_notes", "last_computed_at").
		Values(r.RestaurantID, r.CompositeScore, r.AvgSentiment, r.Confidence, r.TotalReviews, r.AutoRank,
			r.IsFeatured, r.IsPublished, r.IsPushed, r.AdminNotes, r.LastComputedAt).
		Suffix("RETURNING id")

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

// UpdateRankingScores writes the computed fields only; human-owned fields are left alone.
func (s *store) UpdateRankingScores(ctx context.Context, r *domain.Ranking) error {
	query := s.builder().Update(tableRankings).
		SetMap(map[string]interface{}{
			"composite_score":  r.CompositeScore,
			"avg_sentiment":    r.AvgSentiment,
			"confidence":       r.Confidence,
			"total_reviews":    r.TotalReviews,
			"last_computed_at": r.LastComputedAt,
		}).
		Where(sq.Eq{"restaurant_id": r.RestaurantID})

	n, err := s.pool.Execx(ctx, query)
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return wrapErr(errNoRowsAffected)
	}
	return nil
}

// ListRankScores returns every ranking row in insertion order.
func (s *store) ListRankScores(ctx context.Context) ([]*domain.RankScore, error) {
	query := s.builder().Select("restaurant_id", "composite_score", "auto_rank").
		From(tableRankings).
		OrderBy("id")

	var selected []*domain.RankScore
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) UpdateAutoRanks(ctx context.Context, ranks map[int64]int) error {
	return s.pool.InTx(ctx, func(ctx context.Context) error {
		for restaurantID, rank := range ranks {
			query := s.builder().Update(tableRankings).
				Set("auto_rank", rank).
				Where(sq.Eq{"restaurant_id": restaurantID})

			if _, err := s.pool.Execx(ctx, query); err != nil {
				return fmt.Errorf("restaurant_id-%d: %w", restaurantID, wrapErr(err))
			}
		}
		return nil
	})
}

// ListRankedRestaurants orders by manual rank when set, else auto rank; on a
// tie the manual override goes first. A nil RestaurantIDs means every restaurant.
func (s *store) ListRankedRestaurants(ctx context.Context, opts ListRankedOpts) ([]*domain.RankedRestaurant, error) {
	columns := make([]string, 0, len(rankingColumns)+5)
	for _, c := range rankingColumns {
		columns = append(columns, "rk."+c)
	}
	columns = append(columns, "r.name", "r.city", "r.area_code", "r.cuisine", "r.website")

	query := s.builder().Select(columns...).
		From(tableRankings+" rk").
		Join(tableRestaurants+" r on r.id = rk.restaurant_id").
		Where(sq.Eq{"r.is_active": true, "r.is_excluded": false}).
		OrderBy("COALESCE(rk.manual_rank, rk.auto_rank)", "rk.manual_rank IS NULL", "rk.auto_rank", "rk.restaurant_id")

	if opts.RestaurantIDs != nil {
		if len(opts.RestaurantIDs) == 0 {
			return nil, nil
		}
		query = query.Where(sq.Eq{"rk.restaurant_id": opts.RestaurantIDs})
	}
	if opts.OnlyPublished {
		query = query.Where(sq.Eq{"rk.is_published": true})
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var selected []*domain.RankedRestaurant
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) UpdateRankingFlags(ctx context.Context, restaurantIDs []int64, opts RankingFlagsOpts) (int64, error) {
	if len(restaurantIDs) == 0 {
		return 0, nil
	}

	set := map[string]interface{}{}
	if opts.IsPublished != nil {
		set["is_published"] = *opts.IsPublished
		if *opts.IsPublished {
			set["published_at"] = opts.At
		}
	}
	if opts.IsFeatured != nil {
		set["is_featured"] = *opts.IsFeatured
	}
	if opts.IsPushed != nil {
		set["is_pushed"] = *opts.IsPushed
		if *opts.IsPushed {
			set["pushed_at"] = opts.At
		}
	}
	if opts.ManualRank != nil {
		set["manual_rank"] = *opts.ManualRank
	}
	if opts.AdminNotes != nil {
		set["admin_notes"] = *opts.AdminNotes
	}
	if len(set) == 0 {
		return 0, nil
	}

	query := s.builder().Update(tableRankings).
		SetMap(set).
		Where(sq.Eq{"restaurant_id": restaurantIDs})

	n, err := s.pool.Execx(ctx, query)
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}
