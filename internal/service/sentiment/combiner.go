package sentiment

import (
	"math"

	"github.com/ougirez/restorank/internal/domain"
)

// lowConfidence is the confidence below which text weight is damped.
const lowConfidence = 0.3

// StarSentiment maps a 1..5 star rating onto [-1,1].
func StarSentiment(stars float64) float64 {
	return (stars - 3) / 2
}

// Combine blends a star rating with text sentiment into one score in [-1,1],
// rounded to 3 decimals. Below confidence 0.3 the text weight is scaled by
// the confidence, so uncertain text barely moves the star signal.
func Combine(stars float64, text Result, textWeight float64) float64 {
	textWeight = clamp(textWeight, 0, 1)

	effective := textWeight
	if text.Confidence < lowConfidence {
		effective = textWeight * text.Confidence
	}

	score := StarSentiment(stars)*(1-effective) + text.Polarity*effective
	return round(clamp(score, -1, 1), 3)
}

// ToReviewSentiment converts an analysis into the fields stored on a review.
func ToReviewSentiment(text Result, combined float64) domain.ReviewSentiment {
	label := domain.LabelFor(combined)
	polarity := text.Polarity
	subjectivity := text.Subjectivity

	rs := domain.ReviewSentiment{
		Polarity:          &polarity,
		Subjectivity:      &subjectivity,
		SentimentLabel:    &label,
		CombinedSentiment: &combined,
	}
	rs.AspectFood = aspect(text.Aspects, domain.AspectFood)
	rs.AspectService = aspect(text.Aspects, domain.AspectService)
	rs.AspectAmbiance = aspect(text.Aspects, domain.AspectAmbiance)
	rs.AspectValue = aspect(text.Aspects, domain.AspectValue)
	return rs
}

func aspect(aspects map[string]float64, name string) *float64 {
	v, ok := aspects[name]
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}
