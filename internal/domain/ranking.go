package domain

import "time"

type Ranking struct {
	ID             int64      `db:"id" json:"id"`
	RestaurantID   int64      `db:"restaurant_id" json:"restaurant_id"`
	CompositeScore float64    `db:"composite_score" json:"composite_score"`
	AvgSentiment   float64    `db:"avg_sentiment" json:"avg_sentiment"`
	Confidence     float64    `db:"confidence" json:"confidence"`
	TotalReviews   int        `db:"total_reviews" json:"total_reviews"`
	AutoRank       int        `db:"auto_rank" json:"auto_rank"`
	ManualRank     *int       `db:"manual_rank" json:"manual_rank,omitempty"`
	IsFeatured     bool       `db:"is_featured" json:"is_featured"`
	IsPublished    bool       `db:"is_published" json:"is_published"`
	IsPushed       bool       `db:"is_pushed" json:"is_pushed"`
	AdminNotes     string     `db:"admin_notes" json:"admin_notes,omitempty"`
	LastComputedAt time.Time  `db:"last_computed_at" json:"last_computed_at"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	PushedAt       *time.Time `db:"pushed_at" json:"pushed_at,omitempty"`
}

// RankedRestaurant joins a ranking with the restaurant it belongs to.
type RankedRestaurant struct {
	Ranking
	Name     string `db:"name" json:"name"`
	City     string `db:"city" json:"city"`
	AreaCode string `db:"area_code" json:"area_code"`
	Cuisine  string `db:"cuisine" json:"cuisine"`
	Website  string `db:"website" json:"website"`
}

// RankScore is the projection the global re-rank works on.
type RankScore struct {
	RestaurantID   int64   `db:"restaurant_id"`
	CompositeScore float64 `db:"composite_score"`
	AutoRank       int     `db:"auto_rank"`
}
