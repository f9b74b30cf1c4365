// Package ranking turns source ratings and review sentiment into composite
// scores and keeps the global auto rank of every restaurant up to date.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/store"
)

type Store interface {
	store.SourceRatingStore
	store.RankingStore
	store.WeightsStore
	GetSentimentAggregate(ctx context.Context, restaurantID int64) (*domain.SentimentAggregate, error)
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Resolver interface {
	Resolve(ctx context.Context, regionCode string) ([]int64, error)
}

// Failure is one restaurant the batch could not score.
type Failure struct {
	RestaurantID int64  `json:"restaurant_id"`
	Err          error  `json:"-"`
	Message      string `json:"error"`
}

// Report describes one compute-and-rerank cycle.
type Report struct {
	RunID     string    `json:"run_id"`
	Region    string    `json:"region,omitempty"`
	Requested int       `json:"requested"`
	Computed  []int64   `json:"computed"`
	Failures  []Failure `json:"failures"`
	Ranked    int       `json:"ranked"`
	Reranked  int       `json:"reranked"`
}

type Service struct {
	store    Store
	resolver Resolver
	now      func() time.Time

	// mu serialises compute-and-rerank cycles: one writer on the ranking table.
	mu sync.Mutex
}

func NewRankingService(store Store, resolver Resolver) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ComputeRankings recomputes every active restaurant of a region, then re-ranks the whole table.
func (s *Service) ComputeRankings(ctx context.Context, regionCode string) (*Report, error) {
	ids, err := s.resolver.Resolve(ctx, regionCode)
	if err != nil {
		return nil, fmt.Errorf("resolver.Resolve, region-%s: %w", regionCode, err)
	}

	report, err := s.ComputeRankingsForRestaurants(ctx, ids)
	if err != nil {
		return nil, err
	}

	report.Region = regionCode
	return report, nil
}

// ComputeRankingsForRestaurants recomputes the given restaurants and re-ranks
// the whole table. Restaurants are scored independently: one failing is
// reported in Report.Failures and does not stop the others or the re-rank.
// Store errors outside a single restaurant (weights, re-rank) are returned.
func (s *Service) ComputeRankingsForRestaurants(ctx context.Context, ids []int64) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Requested: len(ids),
		Computed:  []int64{},
		Failures:  []Failure{},
	}
	ctx = logger.WithFields(ctx, "run_id", report.RunID)

	ids = dedupe(ids)
	if len(ids) == 0 {
		logger.Infof(ctx, "nothing to recompute")
		return report, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	weights, err := s.store.GetActiveWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.GetActiveWeights: %w", err)
	}

	for _, id := range ids {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		if _, err = s.computeRestaurant(ctx, *weights, id); err != nil {
			logger.Warnf(ctx, "compute restaurant_id-%d: %s", id, err.Error())
			report.Failures = append(report.Failures, Failure{RestaurantID: id, Err: err, Message: err.Error()})
			continue
		}
		report.Computed = append(report.Computed, id)
	}

	ranked, reranked, err := s.rerank(ctx)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	report.Ranked, report.Reranked = ranked, reranked

	logger.Infof(ctx, "computed %d restaurants, %d failed, %d ranks changed of %d",
		len(report.Computed), len(report.Failures), reranked, ranked)

	return report, nil
}

// Rerank re-sorts the whole ranking table without recomputing scores.
func (s *Service) Rerank(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, reranked, err := s.rerank(ctx)
	return reranked, err
}

// computeRestaurant scores one restaurant and upserts its ranking in its own
// transaction, so earlier restaurants of the batch stay committed.
func (s *Service) computeRestaurant(ctx context.Context, weights domain.RankingWeights, restaurantID int64) (*domain.Ranking, error) {
	ratings, err := s.store.ListSourceRatings(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("store.ListSourceRatings: %w", err)
	}

	agg, err := s.store.GetSentimentAggregate(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("store.GetSentimentAggregate: %w", err)
	}

	scores := Score(ratings, *agg, weights)

	var ranking *domain.Ranking
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetRanking(ctx, restaurantID)
		switch {
		case err == nil:
			ranking = existing
			applyScores(ranking, scores, s.now())
			if err = s.store.UpdateRankingScores(ctx, ranking); err != nil {
				return fmt.Errorf("store.UpdateRankingScores: %w", err)
			}
			return nil
		case errors.Is(err, constants.ErrDBNotFound):
			ranking = &domain.Ranking{RestaurantID: restaurantID}
			applyScores(ranking, scores, s.now())
			if ranking.ID, err = s.store.InsertRanking(ctx, ranking); err != nil {
				return fmt.Errorf("store.InsertRanking: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("store.GetRanking: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return ranking, nil
}

func applyScores(r *domain.Ranking, scores Scores, at time.Time) {
	r.CompositeScore = scores.CompositeScore
	r.AvgSentiment = scores.AvgSentiment
	r.Confidence = scores.Confidence
	r.TotalReviews = scores.TotalReviews
	r.LastComputedAt = at
}

// rerank assigns auto ranks over the entire table, not only the rows just
// computed: regional top lists filter this global order after the fact.
func (s *Service) rerank(ctx context.Context) (ranked, changed int, err error) {
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		scores, err := s.store.ListRankScores(ctx)
		if err != nil {
			return fmt.Errorf("store.ListRankScores: %w", err)
		}

		ranks := AssignRanks(scores)
		if err = s.store.UpdateAutoRanks(ctx, ranks); err != nil {
			return fmt.Errorf("store.UpdateAutoRanks: %w", err)
		}

		ranked, changed = len(scores), len(ranks)
		return nil
	})
	return ranked, changed, err
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	res := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
