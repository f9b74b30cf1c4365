package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// ProviderWeights maps custom provider names to their weight.
// Stored as a JSON text column.
type ProviderWeights map[string]float64

func (p ProviderWeights) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	raw, err := sonic.Marshal(map[string]float64(p))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (p *ProviderWeights) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ProviderWeights{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("ProviderWeights: unsupported source type %T", src)
	}

	if len(raw) == 0 {
		*p = ProviderWeights{}
		return nil
	}

	m := make(map[string]float64)
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("ProviderWeights: %w", err)
	}
	*p = m
	return nil
}

// RankingWeights is the active scoring configuration. It is read once per
// batch and passed by value through the engine.
type RankingWeights struct {
	ID                  int64           `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	GoogleWeight        float64         `db:"google_weight" json:"google_weight"`
	YelpWeight          float64         `db:"yelp_weight" json:"yelp_weight"`
	TripAdvisorWeight   float64         `db:"tripadvisor_weight" json:"tripadvisor_weight"`
	CustomProviders     ProviderWeights `db:"custom_providers" json:"custom_providers"`
	UserReviewWeight    float64         `db:"user_review_weight" json:"user_review_weight"`
	SentimentWeight     float64         `db:"sentiment_weight" json:"sentiment_weight"`
	TextWeight          float64         `db:"text_weight" json:"text_weight"`
	DataQualityWeight   float64         `db:"data_quality_weight" json:"data_quality_weight"`
	MinReviewsThreshold int             `db:"min_reviews_threshold" json:"min_reviews_threshold"`
	RecencyDecayDays    int             `db:"recency_decay_days" json:"recency_decay_days"`
	IsActive            bool            `db:"is_active" json:"is_active"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// Providers returns every provider weight: the builtin sources plus custom ones.
// A custom provider sharing a builtin name overrides it.
func (w RankingWeights) Providers() map[string]float64 {
	res := map[string]float64{
		SourceGoogle:      w.GoogleWeight,
		SourceYelp:        w.YelpWeight,
		SourceTripAdvisor: w.TripAdvisorWeight,
	}
	for name, weight := range w.CustomProviders {
		res[name] = weight
	}
	return res
}

func DefaultRankingWeights() RankingWeights {
	return RankingWeights{
		Name:                "default",
		GoogleWeight:        0.25,
		YelpWeight:          0.20,
		TripAdvisorWeight:   0.20,
		CustomProviders:     ProviderWeights{},
		UserReviewWeight:    0.15,
		SentimentWeight:     0.10,
		TextWeight:          0.5,
		DataQualityWeight:   0.10,
		MinReviewsThreshold: 5,
		RecencyDecayDays:    365,
		IsActive:            true,
	}
}
