// Package reviews runs sentiment analysis over stored reviews and accepts
// reviews submitted by users.
package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/pkg/store"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/ougirez/restorank/internal/service/sentiment"
)

type Store interface {
	store.ReviewStore
	store.KeywordStore
	GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error)
	GetActiveWeights(ctx context.Context) (*domain.RankingWeights, error)
}

// Recomputer refreshes rankings after review sentiment changed.
type Recomputer interface {
	ComputeRankingsForRestaurants(ctx context.Context, ids []int64) (*ranking.Report, error)
}

type Service struct {
	store      Store
	analyzer   *sentiment.Analyzer
	recomputer Recomputer
	validate   *validator.Validate
	now        func() time.Time
}

func NewReviewsService(store Store, analyzer *sentiment.Analyzer, recomputer Recomputer) *Service {
	return &Service{
		store:      store,
		analyzer:   analyzer,
		recomputer: recomputer,
		validate:   validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type SubmitReviewRequest struct {
	RestaurantID int64   `json:"restaurant_id" validate:"required,gt=0"`
	Author       string  `json:"author" validate:"max=200"`
	Rating       float64 `json:"rating" validate:"gte=1,lte=5"`
	Text         string  `json:"text" validate:"max=10000"`
	Language     string  `json:"language" validate:"omitempty,max=16"`
}

// Preview is an ad-hoc analysis that is not stored.
type Preview struct {
	sentiment.Result
	Combined *float64 `json:"combined,omitempty"`
}

// batch is the per-run analysis context: one weights read, one keyword set.
type batch struct {
	analyzer   *sentiment.Analyzer
	textWeight float64
}

func (s *Service) newBatch(ctx context.Context) (*batch, error) {
	weights, err := s.store.GetActiveWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.GetActiveWeights: %w", err)
	}

	custom, err := s.store.ListActiveKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListActiveKeywords: %w", err)
	}

	return &batch{
		analyzer:   s.analyzer.WithKeywords(sentiment.NewKeywordSet(custom)),
		textWeight: weights.TextWeight,
	}, nil
}

func (b *batch) analyze(ctx context.Context, review *domain.Review, at time.Time) domain.ReviewSentiment {
	res := b.analyzer.Analyze(ctx, review.Text, review.Language)
	rs := sentiment.ToReviewSentiment(res, sentiment.Combine(review.Rating, res, b.textWeight))
	rs.AnalyzedAt = &at
	return rs
}

// PreviewText analyses text with the current keywords. When stars are given the
// combined score is computed with the active text weight.
func (s *Service) PreviewText(ctx context.Context, text, language string, stars *float64) (*Preview, error) {
	b, err := s.newBatch(ctx)
	if err != nil {
		return nil, err
	}

	res := b.analyzer.Analyze(ctx, text, language)
	preview := &Preview{Result: res}
	if stars != nil {
		combined := sentiment.Combine(*stars, res, b.textWeight)
		preview.Combined = &combined
	}

	return preview, nil
}

// AnalyzeReview (re)computes and stores the sentiment of one review.
func (s *Service) AnalyzeReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("store.GetReview: %w", err)
	}

	b, err := s.newBatch(ctx)
	if err != nil {
		return nil, err
	}

	review.ReviewSentiment = b.analyze(ctx, review, s.now())
	if err = s.store.UpdateReviewSentiment(ctx, review.ID, review.ReviewSentiment); err != nil {
		return nil, fmt.Errorf("store.UpdateReviewSentiment: %w", err)
	}

	return review, nil
}

// AnalyzeRestaurant analyses the reviews of one restaurant and returns how
// many were written. Re-analysing overwrites earlier results.
func (s *Service) AnalyzeRestaurant(ctx context.Context, restaurantID int64, onlyUnanalyzed bool) (int, error) {
	if _, err := s.store.GetRestaurant(ctx, restaurantID); err != nil {
		return 0, fmt.Errorf("store.GetRestaurant: %w", err)
	}

	return s.analyzeReviews(ctx, store.ListReviewsOpts{RestaurantID: restaurantID, OnlyUnanalyzed: onlyUnanalyzed})
}

// AnalyzePending analyses up to limit reviews that have never been analysed.
func (s *Service) AnalyzePending(ctx context.Context, limit uint64) (int, error) {
	return s.analyzeReviews(ctx, store.ListReviewsOpts{OnlyUnanalyzed: true, Limit: limit})
}

func (s *Service) analyzeReviews(ctx context.Context, opts store.ListReviewsOpts) (int, error) {
	reviews, err := s.store.ListReviews(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("store.ListReviews: %w", err)
	}
	if len(reviews) == 0 {
		return 0, nil
	}

	b, err := s.newBatch(ctx)
	if err != nil {
		return 0, err
	}

	at := s.now()
	for _, review := range reviews {
		if err = s.store.UpdateReviewSentiment(ctx, review.ID, b.analyze(ctx, review, at)); err != nil {
			return 0, fmt.Errorf("store.UpdateReviewSentiment, review_id-%d: %w", review.ID, err)
		}
	}

	logger.Infof(ctx, "analysed %d reviews", len(reviews))
	return len(reviews), nil
}

// SubmitReview stores a user review, analyses it and refreshes the ranking of
// its restaurant. A failed refresh is logged; the review is kept.
func (s *Service) SubmitReview(ctx context.Context, req SubmitReviewRequest) (*domain.Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrBadRequest, err.Error())
	}

	restaurant, err := s.store.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("store.GetRestaurant: %w", err)
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	if language == "" {
		language = "en"
	}

	review := &domain.Review{
		RestaurantID: restaurant.ID,
		Source:       domain.SourceUser,
		Author:       strings.TrimSpace(req.Author),
		Rating:       req.Rating,
		Text:         strings.TrimSpace(req.Text),
		Language:     language,
		ReviewDate:   s.now(),
	}

	if review.ID, err = s.store.UpsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("store.UpsertReview: %w", err)
	}

	b, err := s.newBatch(ctx)
	if err != nil {
		return nil, err
	}

	review.ReviewSentiment = b.analyze(ctx, review, s.now())
	if err = s.store.UpdateReviewSentiment(ctx, review.ID, review.ReviewSentiment); err != nil {
		return nil, fmt.Errorf("store.UpdateReviewSentiment: %w", err)
	}

	if s.recomputer != nil {
		if _, err = s.recomputer.ComputeRankingsForRestaurants(ctx, []int64{restaurant.ID}); err != nil {
			logger.Errorf(ctx, "recompute restaurant_id-%d after review: %s", restaurant.ID, err.Error())
		}
	}

	return review, nil
}

func (s *Service) ListReviews(ctx context.Context, restaurantID int64, limit uint64) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviews(ctx, store.ListReviewsOpts{RestaurantID: restaurantID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("store.ListReviews: %w", err)
	}

	return reviews, nil
}

type AddKeywordRequest struct {
	Category  string `json:"category" validate:"required,max=64"`
	Sentiment string `json:"sentiment" validate:"required,oneof=positive negative"`
	Keyword   string `json:"keyword" validate:"required,max=128"`
}

// AddKeyword registers a custom keyword. It is used from the next analysis on.
func (s *Service) AddKeyword(ctx context.Context, req AddKeywordRequest) (*domain.CustomKeyword, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrBadRequest, err.Error())
	}

	kw := &domain.CustomKeyword{
		Category:  strings.ToLower(strings.TrimSpace(req.Category)),
		Sentiment: req.Sentiment,
		Keyword:   strings.ToLower(strings.TrimSpace(req.Keyword)),
		IsActive:  true,
	}

	id, err := s.store.InsertKeyword(ctx, kw)
	if err != nil {
		return nil, fmt.Errorf("store.InsertKeyword: %w", err)
	}

	kw.ID = id
	return kw, nil
}

func (s *Service) SetKeywordActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetKeywordActive(ctx, id, active); err != nil {
		return fmt.Errorf("store.SetKeywordActive: %w", err)
	}
	return nil
}

func (s *Service) ListKeywords(ctx context.Context) ([]*domain.CustomKeyword, error) {
	keywords, err := s.store.ListActiveKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListActiveKeywords: %w", err)
	}
	return keywords, nil
}
