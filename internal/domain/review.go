package domain

import "time"

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// LabelFor applies the ±0.2 dead zone shared by text polarity and combined scores.
func LabelFor(score float64) SentimentLabel {
	switch {
	case score > 0.2:
		return SentimentPositive
	case score < -0.2:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Aspect categories scored from review text.
const (
	AspectFood     = "food"
	AspectService  = "service"
	AspectAmbiance = "ambiance"
	AspectValue    = "value"
)

var Aspects = []string{AspectFood, AspectService, AspectAmbiance, AspectValue}

type Review struct {
	ID           int64     `db:"id" json:"id"`
	RestaurantID int64     `db:"restaurant_id" json:"restaurant_id"`
	Source       string    `db:"source" json:"source"`
	ExternalID   *string   `db:"external_id" json:"external_id,omitempty"`
	Author       string    `db:"author" json:"author"`
	Rating       float64   `db:"rating" json:"rating"`
	Text         string    `db:"text" json:"text"`
	Language     string    `db:"language" json:"language"`
	ReviewDate   time.Time `db:"review_date" json:"review_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ReviewSentiment
}

// ReviewSentiment holds the analysis results written back onto a review.
// All fields are nil until the review has been analysed.
type ReviewSentiment struct {
	Polarity          *float64        `db:"polarity" json:"polarity,omitempty"`
	Subjectivity      *float64        `db:"subjectivity" json:"subjectivity,omitempty"`
	SentimentLabel    *SentimentLabel `db:"sentiment_label" json:"sentiment_label,omitempty"`
	AspectFood        *float64        `db:"aspect_food" json:"aspect_food,omitempty"`
	AspectService     *float64        `db:"aspect_service" json:"aspect_service,omitempty"`
	AspectAmbiance    *float64        `db:"aspect_ambiance" json:"aspect_ambiance,omitempty"`
	AspectValue       *float64        `db:"aspect_value" json:"aspect_value,omitempty"`
	CombinedSentiment *float64        `db:"combined_sentiment" json:"combined_sentiment,omitempty"`
	AnalyzedAt        *time.Time      `db:"analyzed_at" json:"analyzed_at,omitempty"`
}

// SentimentAggregate is the average combined sentiment over analysed reviews.
type SentimentAggregate struct {
	Avg   float64 `db:"avg_sentiment"`
	Count int     `db:"review_count"`
}

type CustomKeyword struct {
	ID        int64     `db:"id" json:"id"`
	Category  string    `db:"category" json:"category"`
	Sentiment string    `db:"sentiment" json:"sentiment"`
	Keyword   string    `db:"keyword" json:"keyword"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	KeywordPositive = "positive"
	KeywordNegative = "negative"
)
