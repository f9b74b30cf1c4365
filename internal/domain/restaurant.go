package domain

import "time"

type Restaurant struct {
	ID              int64     `db:"id" json:"id"`
	ExternalID      *string   `db:"external_id" json:"external_id,omitempty"`
	Name            string    `db:"name" json:"name"`
	City            string    `db:"city" json:"city"`
	AreaCode        string    `db:"area_code" json:"area_code"`
	Country         string    `db:"country" json:"country"`
	Latitude        *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude       *float64  `db:"longitude" json:"longitude,omitempty"`
	Cuisine         string    `db:"cuisine" json:"cuisine"`
	PriceLevel      int       `db:"price_level" json:"price_level"`
	Website         string    `db:"website" json:"website"`
	Email           string    `db:"email" json:"email"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	IsExcluded      bool      `db:"is_excluded" json:"is_excluded"`
	ExclusionReason string    `db:"exclusion_reason" json:"exclusion_reason,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Sources a restaurant can be rated on.
const (
	SourceGoogle      = "google"
	SourceYelp        = "yelp"
	SourceTripAdvisor = "tripadvisor"
	SourceUser        = "user"
	SourceManual      = "manual"
)

// SourceRating is the aggregate rating of one restaurant on one source.
type SourceRating struct {
	ID           int64     `db:"id" json:"id"`
	RestaurantID int64     `db:"restaurant_id" json:"restaurant_id"`
	Source       string    `db:"source" json:"source"`
	AvgRating    float64   `db:"avg_rating" json:"avg_rating"`
	ReviewCount  int       `db:"review_count" json:"review_count"`
	DataQuality  float64   `db:"data_quality" json:"data_quality"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
