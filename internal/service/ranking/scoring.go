package ranking

import (
	"math"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/shopspring/decimal"
)

// belowThresholdConfidence is given to restaurants with fewer reviews than the
// configured minimum. It can exceed the log-scaled confidence of a restaurant
// just at the threshold; kept as is.
const belowThresholdConfidence = 0.5

// Scores is the outcome of scoring one restaurant.
type Scores struct {
	AvgRating             float64
	SentimentContribution float64
	CompositeScore        float64
	AvgSentiment          float64
	Confidence            float64
	TotalReviews          int
}

// Score computes the composite ranking of one restaurant from its per-source
// ratings and the average combined sentiment of its analysed reviews.
//
// Only sources present in both the ratings and the weights contribute, and
// weights are not renormalised over missing sources. A restaurant without a
// weighted rating scores 0 whatever its sentiment.
func Score(ratings []*domain.SourceRating, sentiment domain.SentimentAggregate, weights domain.RankingWeights) Scores {
	providers := weights.Providers()

	var (
		total     int
		sumRating float64
		sumWeight float64
	)
	for _, r := range ratings {
		total += r.ReviewCount

		weight, ok := providers[r.Source]
		if !ok {
			continue
		}
		sumRating += r.AvgRating * weight
		sumWeight += weight
	}

	var avgRating float64
	if sumWeight > 0 {
		avgRating = sumRating / sumWeight
	}

	contribution := ((sentiment.Avg + 1) / 2) * 5 * weights.SentimentWeight

	var composite float64
	if avgRating > 0 {
		composite = avgRating*(1-weights.SentimentWeight) + contribution
	}

	return Scores{
		AvgRating:             avgRating,
		SentimentContribution: contribution,
		CompositeScore:        round(composite, 4),
		AvgSentiment:          round(sentiment.Avg, 3),
		Confidence:            round(Confidence(total, weights.MinReviewsThreshold), 4),
		TotalReviews:          total,
	}
}

// Confidence saturates at 100 reviews: min(1, log10(n+1)/log10(100)).
func Confidence(totalReviews, minReviews int) float64 {
	if totalReviews < minReviews {
		return belowThresholdConfidence
	}
	return math.Min(1, math.Log10(float64(totalReviews)+1)/2)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
