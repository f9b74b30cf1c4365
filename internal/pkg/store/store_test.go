package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/store"
	"github.com/ougirez/restorank/internal/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpsertRestaurantByExternalID(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	first := &domain.Restaurant{ExternalID: strPtr("place-1"), Name: "Old name", City: "Austin", AreaCode: "TX", IsActive: true}
	id, err := st.UpsertRestaurantByExternalID(ctx, first)
	require.NoError(t, err)
	require.NoError(t, st.SetRestaurantExcluded(ctx, id, true, "closed for renovation"))

	again, err := st.UpsertRestaurantByExternalID(ctx, &domain.Restaurant{
		ExternalID: strPtr("place-1"), Name: "New name", City: "Austin", AreaCode: "TX", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := st.GetRestaurant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New name", got.Name)
	assert.True(t, got.IsExcluded)
	assert.Equal(t, "closed for renovation", got.ExclusionReason)
}

func TestGetRestaurantNotFound(t *testing.T) {
	st := storetest.New(t)

	_, err := st.GetRestaurant(context.Background(), 404)
	require.ErrorIs(t, err, constants.ErrDBNotFound)
}

func TestListActiveRestaurantIDsByLocation(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	byArea := storetest.Restaurant(t, st, "By area", "Round Rock", "tx")
	byCity := storetest.Restaurant(t, st, "By city", "AUSTIN", "")
	storetest.Restaurant(t, st, "Elsewhere", "Denver", "CO")

	inactive, err := st.InsertRestaurant(ctx, &domain.Restaurant{Name: "Inactive", City: "Austin", AreaCode: "TX"})
	require.NoError(t, err)

	ids, err := st.ListActiveRestaurantIDsByLocation(ctx, store.LocationFilterOpts{
		AreaCode: "TX",
		Cities:   []string{"austin", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{byArea, byCity}, ids)
	assert.NotContains(t, ids, inactive)

	ids, err = st.ListActiveRestaurantIDsByLocation(ctx, store.LocationFilterOpts{})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUpsertSourceRating(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	id := storetest.Restaurant(t, st, "Diner", "Austin", "TX",
		domain.SourceRating{Source: domain.SourceGoogle, AvgRating: 4.1, ReviewCount: 10})
	require.NoError(t, st.UpsertSourceRating(ctx, &domain.SourceRating{
		RestaurantID: id, Source: domain.SourceGoogle, AvgRating: 4.4, ReviewCount: 12, DataQuality: 0.75,
	}))
	require.NoError(t, st.UpsertSourceRating(ctx, &domain.SourceRating{
		RestaurantID: id, Source: domain.SourceYelp, AvgRating: 3.9, ReviewCount: 3,
	}))

	ratings, err := st.ListSourceRatings(ctx, id)
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, domain.SourceGoogle, ratings[0].Source)
	assert.Equal(t, 4.4, ratings[0].AvgRating)
	assert.Equal(t, 12, ratings[0].ReviewCount)
	assert.Equal(t, domain.SourceYelp, ratings[1].Source)
}

func TestReviewsAndSentimentAggregate(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	id := storetest.Restaurant(t, st, "Diner", "Austin", "TX")

	storetest.AnalysedReview(t, st, id, 5, 0.8)
	storetest.AnalysedReview(t, st, id, 2, -0.4)
	pending, err := st.UpsertReview(ctx, &domain.Review{
		RestaurantID: id, Source: domain.SourceGoogle, ExternalID: strPtr("g-1"), Rating: 4, Text: "fine",
	})
	require.NoError(t, err)

	agg, err := st.GetSentimentAggregate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 0.2, agg.Avg, 1e-9)

	unanalysed, err := st.ListReviews(ctx, store.ListReviewsOpts{RestaurantID: id, OnlyUnanalyzed: true})
	require.NoError(t, err)
	require.Len(t, unanalysed, 1)
	assert.Equal(t, pending, unanalysed[0].ID)

	// same source and external id refreshes the row
	again, err := st.UpsertReview(ctx, &domain.Review{
		RestaurantID: id, Source: domain.SourceGoogle, ExternalID: strPtr("g-1"), Rating: 2, Text: "worse now",
	})
	require.NoError(t, err)
	assert.Equal(t, pending, again)

	review, err := st.GetReview(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, 2.0, review.Rating)
	assert.Equal(t, "worse now", review.Text)
	assert.Nil(t, review.CombinedSentiment)

	empty, err := st.GetSentimentAggregate(ctx, 9999)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Avg)

	err = st.UpdateReviewSentiment(ctx, 9999, domain.ReviewSentiment{})
	require.ErrorIs(t, err, constants.ErrDBNotFound)
}

func TestWeightsActivation(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	active, err := st.GetActiveWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", active.Name)

	custom := domain.DefaultRankingWeights()
	custom.Name = "local-guide"
	custom.CustomProviders = domain.ProviderWeights{"michelin": 0.3}
	_, err = st.SaveWeights(ctx, &custom)
	require.NoError(t, err)

	active, err = st.GetActiveWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", active.Name, "saving does not activate")

	require.NoError(t, st.ActivateWeights(ctx, "local-guide"))
	active, err = st.GetActiveWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local-guide", active.Name)
	assert.Equal(t, 0.3, active.CustomProviders["michelin"])

	require.ErrorIs(t, st.ActivateWeights(ctx, "missing"), constants.ErrDBNotFound)
}

func TestKeywords(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	id, err := st.InsertKeyword(ctx, &domain.CustomKeyword{
		Category: "drinks", Sentiment: domain.KeywordPositive, Keyword: "craft beer", IsActive: true,
	})
	require.NoError(t, err)
	_, err = st.InsertKeyword(ctx, &domain.CustomKeyword{
		Category: "drinks", Sentiment: domain.KeywordNegative, Keyword: "flat soda", IsActive: true,
	})
	require.NoError(t, err)

	require.NoError(t, st.SetKeywordActive(ctx, id, false))

	active, err := st.ListActiveKeywords(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "flat soda", active[0].Keyword)

	// re-adding reactivates the same row
	again, err := st.InsertKeyword(ctx, &domain.CustomKeyword{
		Category: "drinks", Sentiment: domain.KeywordPositive, Keyword: "craft beer", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	require.ErrorIs(t, st.SetKeywordActive(ctx, 9999, true), constants.ErrDBNotFound)
}

func TestRankedRestaurantsOrdering(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	now := time.Now().UTC()

	first := storetest.Restaurant(t, st, "First", "Austin", "TX")
	second := storetest.Restaurant(t, st, "Second", "Austin", "TX")
	third := storetest.Restaurant(t, st, "Third", "Austin", "TX")
	excluded := storetest.Restaurant(t, st, "Excluded", "Austin", "TX")

	for i, id := range []int64{first, second, third, excluded} {
		_, err := st.InsertRanking(ctx, &domain.Ranking{RestaurantID: id, AutoRank: i + 1, LastComputedAt: now})
		require.NoError(t, err)
	}
	require.NoError(t, st.SetRestaurantExcluded(ctx, excluded, true, "duplicate"))

	// third pinned to 2 goes ahead of second whose auto rank is also 2
	pinned := 2
	manual := &pinned
	n, err := st.UpdateRankingFlags(ctx, []int64{third}, store.RankingFlagsOpts{ManualRank: &manual})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := st.ListRankedRestaurants(ctx, store.ListRankedOpts{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{first, third, second},
		[]int64{list[0].RestaurantID, list[1].RestaurantID, list[2].RestaurantID})
	assert.Equal(t, "Third", list[1].Name)

	list, err = st.ListRankedRestaurants(ctx, store.ListRankedOpts{RestaurantIDs: []int64{}})
	require.NoError(t, err)
	assert.Empty(t, list)

	published := true
	_, err = st.UpdateRankingFlags(ctx, []int64{second}, store.RankingFlagsOpts{IsPublished: &published, At: now})
	require.NoError(t, err)

	list, err = st.ListRankedRestaurants(ctx, store.ListRankedOpts{OnlyPublished: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second, list[0].RestaurantID)
	assert.NotNil(t, list[0].PublishedAt)
}

func TestUpdateAutoRanksInTx(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	now := time.Now().UTC()

	a := storetest.Restaurant(t, st, "A", "Austin", "TX")
	b := storetest.Restaurant(t, st, "B", "Austin", "TX")
	for _, id := range []int64{a, b} {
		_, err := st.InsertRanking(ctx, &domain.Ranking{RestaurantID: id, LastComputedAt: now})
		require.NoError(t, err)
	}

	err := st.InTx(ctx, func(ctx context.Context) error {
		return st.UpdateAutoRanks(ctx, map[int64]int{a: 2, b: 1})
	})
	require.NoError(t, err)

	scores, err := st.ListRankScores(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 2, scores[0].AutoRank)
	assert.Equal(t, 1, scores[1].AutoRank)

	err = st.UpdateRankingScores(ctx, &domain.Ranking{RestaurantID: 9999, LastComputedAt: now})
	require.ErrorIs(t, err, constants.ErrDBNotFound)
}

func TestRegions(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)

	id, err := st.UpsertRegion(ctx, &domain.Region{Code: "ATX", Name: "Austin"})
	require.NoError(t, err)
	again, err := st.UpsertRegion(ctx, &domain.Region{Code: "ATX", Name: "Austin Metro"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	region, err := st.GetRegionByCode(ctx, "atx")
	require.NoError(t, err)
	assert.Equal(t, "Austin Metro", region.Name)

	_, err = st.GetRegionByCode(ctx, "nowhere")
	require.ErrorIs(t, err, constants.ErrDBNotFound)
}

func TestUpsertReview_ChangedReviewIsAnalysedAgain(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	restaurantID := storetest.Restaurant(t, st, "Diner", "Austin", "TX")

	review := &domain.Review{
		RestaurantID: restaurantID, Source: domain.SourceGoogle, ExternalID: strPtr("g-7"),
		Rating: 5, Text: "Wonderful dinner", Language: "en",
	}
	id, err := st.UpsertReview(ctx, review)
	require.NoError(t, err)

	combined, polarity := 0.9, 0.8
	label := domain.LabelFor(combined)
	require.NoError(t, st.UpdateReviewSentiment(ctx, id, domain.ReviewSentiment{
		Polarity: &polarity, SentimentLabel: &label, CombinedSentiment: &combined,
	}))

	// unchanged re-import keeps the analysis
	_, err = st.UpsertReview(ctx, review)
	require.NoError(t, err)
	got, err := st.GetReview(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.CombinedSentiment)
	assert.Equal(t, 0.9, *got.CombinedSentiment)

	changed := *review
	changed.Rating = 1
	changed.Text = "Terrible, disgusting, never again"
	again, err := st.UpsertReview(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err = st.GetReview(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Rating)
	assert.Equal(t, "Terrible, disgusting, never again", got.Text)
	assert.Nil(t, got.CombinedSentiment)
	assert.Nil(t, got.Polarity)
	assert.Nil(t, got.SentimentLabel)
	assert.Nil(t, got.AnalyzedAt)

	pending, err := st.ListReviews(ctx, store.ListReviewsOpts{RestaurantID: restaurantID, OnlyUnanalyzed: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	agg, err := st.GetSentimentAggregate(ctx, restaurantID)
	require.NoError(t, err)
	assert.Zero(t, agg.Count)
}
