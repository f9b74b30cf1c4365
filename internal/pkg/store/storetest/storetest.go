// Package storetest opens throwaway SQLite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/store"
	"github.com/stretchr/testify/require"
)

// New returns a migrated store in a temp dir with the default weights active.
func New(t testing.TB) store.Store {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, constants.DriverSQLite, filepath.Join(t.TempDir(), "restorank.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Migrate(ctx))
	ActivateWeights(t, st, domain.DefaultRankingWeights())

	return st
}

func ActivateWeights(t testing.TB, st store.Store, w domain.RankingWeights) {
	t.Helper()
	ctx := context.Background()

	_, err := st.SaveWeights(ctx, &w)
	require.NoError(t, err)
	require.NoError(t, st.ActivateWeights(ctx, w.Name))
}

// Restaurant inserts an active restaurant with its per-source ratings.
func Restaurant(t testing.TB, st store.Store, name, city, areaCode string, ratings ...domain.SourceRating) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := st.InsertRestaurant(ctx, &domain.Restaurant{
		Name:     name,
		City:     city,
		AreaCode: areaCode,
		Country:  "US",
		IsActive: true,
	})
	require.NoError(t, err)

	for _, r := range ratings {
		r.RestaurantID = id
		require.NoError(t, st.UpsertSourceRating(ctx, &r))
	}

	return id
}

// AnalysedReview inserts a review already carrying a combined sentiment.
func AnalysedReview(t testing.TB, st store.Store, restaurantID int64, rating, combined float64) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := st.UpsertReview(ctx, &domain.Review{
		RestaurantID: restaurantID,
		Source:       domain.SourceUser,
		Rating:       rating,
		Text:         "seeded review",
		Language:     "en",
	})
	require.NoError(t, err)

	label := domain.LabelFor(combined)
	require.NoError(t, st.UpdateReviewSentiment(ctx, id, domain.ReviewSentiment{
		SentimentLabel:    &label,
		CombinedSentiment: &combined,
	}))

	return id
}
