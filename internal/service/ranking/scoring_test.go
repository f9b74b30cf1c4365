package ranking

import (
	"testing"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScore_WeightedCompositeWithSentiment(t *testing.T) {
	weights := domain.DefaultRankingWeights()
	ratings := []*domain.SourceRating{
		{Source: domain.SourceGoogle, AvgRating: 4.5, ReviewCount: 200},
		{Source: domain.SourceYelp, AvgRating: 4.0, ReviewCount: 50},
	}

	got := Score(ratings, domain.SentimentAggregate{Avg: 0.4, Count: 10}, weights)

	assert.InDelta(t, 4.2778, got.AvgRating, 1e-4)
	assert.InDelta(t, 0.35, got.SentimentContribution, 1e-9)
	assert.Equal(t, 4.2, got.CompositeScore)
	assert.Equal(t, 0.4, got.AvgSentiment)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, 250, got.TotalReviews)
}

func TestScore_NoWeightedProviderIsZero(t *testing.T) {
	ratings := []*domain.SourceRating{
		{Source: "opentable", AvgRating: 4.8, ReviewCount: 30},
	}

	got := Score(ratings, domain.SentimentAggregate{Avg: 1, Count: 30}, domain.DefaultRankingWeights())

	assert.Zero(t, got.CompositeScore)
	assert.Equal(t, 30, got.TotalReviews)
}

func TestScore_NoRatings(t *testing.T) {
	got := Score(nil, domain.SentimentAggregate{}, domain.DefaultRankingWeights())

	assert.Zero(t, got.CompositeScore)
	assert.Zero(t, got.TotalReviews)
	assert.Equal(t, belowThresholdConfidence, got.Confidence)
}

func TestScore_CustomProviderCounts(t *testing.T) {
	weights := domain.DefaultRankingWeights()
	weights.CustomProviders = domain.ProviderWeights{"opentable": 0.5}
	weights.SentimentWeight = 0

	got := Score([]*domain.SourceRating{
		{Source: "opentable", AvgRating: 4.0, ReviewCount: 10},
		{Source: domain.SourceGoogle, AvgRating: 3.0, ReviewCount: 10},
	}, domain.SentimentAggregate{}, weights)

	// (4*0.5 + 3*0.25) / 0.75
	assert.Equal(t, 3.6667, got.CompositeScore)
}

func TestScore_MissingProvidersAreNotRenormalised(t *testing.T) {
	weights := domain.DefaultRankingWeights()
	weights.SentimentWeight = 0

	only := Score([]*domain.SourceRating{
		{Source: domain.SourceGoogle, AvgRating: 4.0, ReviewCount: 10},
	}, domain.SentimentAggregate{}, weights)

	both := Score([]*domain.SourceRating{
		{Source: domain.SourceGoogle, AvgRating: 4.0, ReviewCount: 10},
		{Source: domain.SourceYelp, AvgRating: 4.0, ReviewCount: 10},
	}, domain.SentimentAggregate{}, weights)

	assert.Equal(t, 4.0, only.CompositeScore)
	assert.Equal(t, 4.0, both.CompositeScore)
}

func TestScore_NegativeSentimentPullsDown(t *testing.T) {
	weights := domain.DefaultRankingWeights()
	ratings := []*domain.SourceRating{{Source: domain.SourceGoogle, AvgRating: 4.0, ReviewCount: 100}}

	pos := Score(ratings, domain.SentimentAggregate{Avg: 1, Count: 5}, weights)
	neg := Score(ratings, domain.SentimentAggregate{Avg: -1, Count: 5}, weights)

	// 4*0.9 + 0.5 and 4*0.9 + 0
	assert.Equal(t, 4.1, pos.CompositeScore)
	assert.Equal(t, 3.6, neg.CompositeScore)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.5, Confidence(0, 5))
	assert.Equal(t, 0.5, Confidence(4, 5))
	assert.InDelta(t, 0.389, Confidence(5, 5), 1e-3)
	assert.InDelta(t, 0.5, Confidence(9, 5), 1e-9)
	assert.Equal(t, 1.0, Confidence(99, 5))
	assert.Equal(t, 1.0, Confidence(10_000, 5))
}

// One review over the threshold lowers confidence; this is kept on purpose.
func TestConfidence_NotMonotonicAtThreshold(t *testing.T) {
	assert.Greater(t, Confidence(4, 5), Confidence(5, 5))
}
