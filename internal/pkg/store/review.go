package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/restorank/internal/domain"
)

type ReviewStore interface {
	UpsertReview(ctx context.Context, review *domain.Review) (int64, error)
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	ListReviews(ctx context.Context, opts ListReviewsOpts) ([]*domain.Review, error)
	UpdateReviewSentiment(ctx context.Context, reviewID int64, sentiment domain.ReviewSentiment) error
	GetSentimentAggregate(ctx context.Context, restaurantID int64) (*domain.SentimentAggregate, error)
}

type ListReviewsOpts struct {
	RestaurantID int64
	// OnlyUnanalyzed restricts to reviews without a combined sentiment.
	OnlyUnanalyzed bool
	Limit          uint64
}

var reviewColumns = []string{
	"id", "restaurant_id", "source", "external_id", "author", "rating", "text", "language", "review_date", "created_at",
	"polarity", "subjectivity", "sentiment_label", "aspect_food", "aspect_service", "aspect_ambiance", "aspect_value",
	"combined_sentiment", "analyzed_at",
}

// sentimentColumns are cleared when a re-imported review changes.
var sentimentColumns = reviewColumns[10:]

// reviewUpsertSuffix refreshes rating and text of a known review. When either
// changed, the stored sentiment is reset so the review is analysed again.
var reviewUpsertSuffix = func() string {
	var b strings.Builder
	b.WriteString(`
on conflict (source, external_id)
do update
set
	rating = excluded.rating,
	text = excluded.text,
	language = excluded.language`)
	for _, c := range sentimentColumns {
		fmt.Fprintf(&b, `,
	%[2]s = CASE WHEN %[1]s.text <> excluded.text OR %[1]s.rating <> excluded.rating THEN NULL ELSE %[1]s.%[2]s END`,
			tableReviews, c)
	}
	b.WriteString("\nreturning id")
	return b.String()
}()

// UpsertReview inserts a review. An externally sourced review seen again
// (same source and external id) has its rating and text refreshed.
func (s *store) UpsertReview(ctx context.Context, review *domain.Review) (int64, error) {
	reviewDate := review.ReviewDate
	if reviewDate.IsZero() {
		reviewDate = time.Now().UTC()
	}

	query := s.builder().Insert(tableReviews).
		Columns("restaurant_id", "source", "external_id", "author", "rating", "text", "language", "review_date", "created_at").
		Values(review.RestaurantID, review.Source, review.ExternalID, review.Author, review.Rating, review.Text,
			review.Language, reviewDate, time.Now().UTC()).
		Suffix(reviewUpsertSuffix)

	var id int64
	if err := s.pool.Getx(ctx, &id, query); err != nil {
		return 0, wrapErr(err)
	}
	return id, nil
}

func (s *store) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	query := s.builder().Select(reviewColumns...).
		From(tableReviews).
		Where(sq.Eq{"id": id})

	var selected domain.Review
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return &selected, nil
}

func (s *store) ListReviews(ctx context.Context, opts ListReviewsOpts) ([]*domain.Review, error) {
	query := s.builder().Select(reviewColumns...).
		From(tableReviews).
		OrderBy("id")

	if opts.RestaurantID != 0 {
		query = query.Where(sq.Eq{"restaurant_id": opts.RestaurantID})
	}
	if opts.OnlyUnanalyzed {
		query = query.Where(sq.Eq{"combined_sentiment": nil})
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var selected []*domain.Review
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

func (s *store) UpdateReviewSentiment(ctx context.Context, reviewID int64, sentiment domain.ReviewSentiment) error {
	query := s.builder().Update(tableReviews).
		SetMap(map[string]interface{}{
			"polarity":           sentiment.Polarity,
			"subjectivity":       sentiment.Subjectivity,
			"sentiment_label":    sentiment.SentimentLabel,
			"aspect_food":        sentiment.AspectFood,
			"aspect_service":     sentiment.AspectService,
			"aspect_ambiance":    sentiment.AspectAmbiance,
			"aspect_value":       sentiment.AspectValue,
			"combined_sentiment": sentiment.CombinedSentiment,
			"analyzed_at":        sentiment.AnalyzedAt,
		}).
		Where(sq.Eq{"id": reviewID})

	n, err := s.pool.Execx(ctx, query)
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return wrapErr(errNoRowsAffected)
	}
	return nil
}

func (s *store) GetSentimentAggregate(ctx context.Context, restaurantID int64) (*domain.SentimentAggregate, error) {
	query := s.builder().Select(
		"COALESCE(AVG(combined_sentiment), 0) AS avg_sentiment",
		"COUNT(combined_sentiment) AS review_count",
	).
		From(tableReviews).
		Where(sq.And{
			sq.Eq{"restaurant_id": restaurantID},
			sq.NotEq{"combined_sentiment": nil},
		})

	var agg domain.SentimentAggregate
	if err := s.pool.Getx(ctx, &agg, query); err != nil {
		return nil, wrapErr(err)
	}
	return &agg, nil
}
