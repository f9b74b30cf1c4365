// Package curation builds the per-region top lists admins review, publish and
// push to syndication partners.
package curation

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/store"
)

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetRanking(ctx context.Context, restaurantID int64) (*domain.Ranking, error)
	ListRankedRestaurants(ctx context.Context, opts store.ListRankedOpts) ([]*domain.RankedRestaurant, error)
	UpdateRankingFlags(ctx context.Context, restaurantIDs []int64, opts store.RankingFlagsOpts) (int64, error)
	SetRestaurantExcluded(ctx context.Context, id int64, excluded bool, reason string) error
}

type Resolver interface {
	Resolve(ctx context.Context, regionCode string) ([]int64, error)
}

type Config struct {
	DefaultTopN  int
	PushEndpoint string
	PushToken    string
	Timeout      time.Duration
}

type Service struct {
	store      Store
	resolver   Resolver
	client     *http.Client
	cfg        Config
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

func NewCurationService(store Store, resolver Resolver, cfg Config) *Service {
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Service{
		store:    store,
		resolver: resolver,
		client:   &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
		},
	}
}

// TopN lists the best ranked restaurants of a region: manual rank first when
// set, auto rank otherwise. Excluded and inactive restaurants never appear.
// n <= 0 uses the configured default.
func (s *Service) TopN(ctx context.Context, regionCode string, n int, onlyPublished bool) ([]*domain.RankedRestaurant, error) {
	if n <= 0 {
		n = s.cfg.DefaultTopN
	}

	ids, err := s.resolver.Resolve(ctx, regionCode)
	if err != nil {
		return nil, fmt.Errorf("resolver.Resolve, region-%s: %w", regionCode, err)
	}

	return s.topOf(ctx, ids, n, onlyPublished)
}

func (s *Service) topOf(ctx context.Context, ids []int64, n int, onlyPublished bool) ([]*domain.RankedRestaurant, error) {
	if len(ids) == 0 {
		return []*domain.RankedRestaurant{}, nil
	}

	ranked, err := s.store.ListRankedRestaurants(ctx, store.ListRankedOpts{
		RestaurantIDs: ids,
		OnlyPublished: onlyPublished,
		Limit:         uint64(n),
	})
	if err != nil {
		return nil, fmt.Errorf("store.ListRankedRestaurants: %w", err)
	}

	return ranked, nil
}

// PublishTop publishes the current top n of a region and returns it. Rankings
// of the region that fell out of the top n are unpublished in the same step.
func (s *Service) PublishTop(ctx context.Context, regionCode string, n int) ([]*domain.RankedRestaurant, error) {
	if n <= 0 {
		n = s.cfg.DefaultTopN
	}

	regionIDs, err := s.resolver.Resolve(ctx, regionCode)
	if err != nil {
		return nil, fmt.Errorf("resolver.Resolve, region-%s: %w", regionCode, err)
	}

	top, err := s.topOf(ctx, regionIDs, n, false)
	if err != nil {
		return nil, err
	}

	inTop := make(map[int64]struct{}, len(top))
	ids := make([]int64, 0, len(top))
	for _, r := range top {
		inTop[r.RestaurantID] = struct{}{}
		ids = append(ids, r.RestaurantID)
	}
	rest := make([]int64, 0, len(regionIDs))
	for _, id := range regionIDs {
		if _, ok := inTop[id]; !ok {
			rest = append(rest, id)
		}
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.SetPublished(ctx, rest, false); err != nil {
			return err
		}
		_, err := s.SetPublished(ctx, ids, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	at := s.now()
	for _, r := range top {
		r.IsPublished = true
		r.PublishedAt = &at
	}
	return top, nil
}

func (s *Service) SetPublished(ctx context.Context, restaurantIDs []int64, published bool) (int64, error) {
	n, err := s.store.UpdateRankingFlags(ctx, restaurantIDs, store.RankingFlagsOpts{IsPublished: &published, At: s.now()})
	if err != nil {
		return 0, fmt.Errorf("store.UpdateRankingFlags: %w", err)
	}
	return n, nil
}

func (s *Service) SetFeatured(ctx context.Context, restaurantID int64, featured bool) error {
	return s.updateOne(ctx, restaurantID, store.RankingFlagsOpts{IsFeatured: &featured})
}

// SetManualRank overrides the position of a restaurant in top lists; nil clears it.
func (s *Service) SetManualRank(ctx context.Context, restaurantID int64, rank *int) error {
	if rank != nil && *rank <= 0 {
		return fmt.Errorf("%w: manual rank must be positive", constants.ErrBadRequest)
	}
	return s.updateOne(ctx, restaurantID, store.RankingFlagsOpts{ManualRank: &rank})
}

func (s *Service) SetNotes(ctx context.Context, restaurantID int64, notes string) error {
	notes = strings.TrimSpace(notes)
	return s.updateOne(ctx, restaurantID, store.RankingFlagsOpts{AdminNotes: &notes})
}

// SetExcluded hides a restaurant from every top list without touching its scores.
func (s *Service) SetExcluded(ctx context.Context, restaurantID int64, excluded bool, reason string) error {
	if err := s.store.SetRestaurantExcluded(ctx, restaurantID, excluded, strings.TrimSpace(reason)); err != nil {
		return fmt.Errorf("store.SetRestaurantExcluded: %w", err)
	}
	return nil
}

func (s *Service) updateOne(ctx context.Context, restaurantID int64, opts store.RankingFlagsOpts) error {
	opts.At = s.now()
	n, err := s.store.UpdateRankingFlags(ctx, []int64{restaurantID}, opts)
	if err != nil {
		return fmt.Errorf("store.UpdateRankingFlags: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ranking of restaurant_id-%d: %w", restaurantID, constants.ErrDBNotFound)
	}
	return nil
}

type PushItem struct {
	Rank           int     `json:"rank"`
	RestaurantID   int64   `json:"restaurant_id"`
	Name           string  `json:"name"`
	City           string  `json:"city"`
	Cuisine        string  `json:"cuisine,omitempty"`
	Website        string  `json:"website,omitempty"`
	CompositeScore float64 `json:"composite_score"`
	Confidence     float64 `json:"confidence"`
	Featured       bool    `json:"featured"`
}

type PushPayload struct {
	Region      string     `json:"region"`
	GeneratedAt time.Time  `json:"generated_at"`
	Restaurants []PushItem `json:"restaurants"`
}

// Push sends the published top list of a region to the syndication endpoint
// and marks the pushed rankings.
func (s *Service) Push(ctx context.Context, regionCode string, n int) (*PushPayload, error) {
	if s.cfg.PushEndpoint == "" {
		return nil, fmt.Errorf("%w: push endpoint is not configured", constants.ErrBadRequest)
	}

	top, err := s.TopN(ctx, regionCode, n, true)
	if err != nil {
		return nil, err
	}

	payload := &PushPayload{
		Region:      regionCode,
		GeneratedAt: s.now(),
		Restaurants: make([]PushItem, 0, len(top)),
	}
	ids := make([]int64, 0, len(top))
	for i, r := range top {
		payload.Restaurants = append(payload.Restaurants, PushItem{
			Rank:           i + 1,
			RestaurantID:   r.RestaurantID,
			Name:           r.Name,
			City:           r.City,
			Cuisine:        r.Cuisine,
			Website:        r.Website,
			CompositeScore: r.CompositeScore,
			Confidence:     r.Confidence,
			Featured:       r.IsFeatured,
		})
		ids = append(ids, r.RestaurantID)
	}
	if len(ids) == 0 {
		logger.Infof(ctx, "nothing published in region %s, push skipped", regionCode)
		return payload, nil
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sonic.Marshal: %w", err)
	}

	if err = s.post(ctx, body); err != nil {
		return nil, fmt.Errorf("push region-%s: %w", regionCode, err)
	}

	pushed := true
	if _, err = s.store.UpdateRankingFlags(ctx, ids, store.RankingFlagsOpts{IsPushed: &pushed, At: payload.GeneratedAt}); err != nil {
		return nil, fmt.Errorf("store.UpdateRankingFlags: %w", err)
	}

	logger.Infof(ctx, "pushed %d restaurants of region %s", len(ids), regionCode)
	return payload, nil
}

func (s *Service) post(ctx context.Context, body []byte) error {
	return backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PushEndpoint, bytes.NewReader(body))
			if err != nil {
				return backoff.Permanent(fmt.Errorf("http.NewRequestWithContext: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			if s.cfg.PushToken != "" {
				req.Header.Set(constants.HeaderAuthorization, "Bearer "+s.cfg.PushToken)
			}

			resp, err := s.client.Do(req)
			if err != nil {
				return fmt.Errorf("http.Do: %w", err)
			}
			_ = resp.Body.Close()

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return nil
			case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			default:
				return backoff.Permanent(fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status))
			}
		},
		backoff.WithContext(s.newBackOff(), ctx),
	)
}
