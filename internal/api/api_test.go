package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ougirez/restorank/internal/api/controller"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/store"
	"github.com/ougirez/restorank/internal/pkg/store/storetest"
	"github.com/ougirez/restorank/internal/service/auth"
	"github.com/ougirez/restorank/internal/service/contacts"
	"github.com/ougirez/restorank/internal/service/curation"
	"github.com/ougirez/restorank/internal/service/providers"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/ougirez/restorank/internal/service/region"
	"github.com/ougirez/restorank/internal/service/reviews"
	"github.com/ougirez/restorank/internal/service/sentiment"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret"

func newTestAPI(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	viper.Set(constants.ViperSecretKey, testSecret)
	t.Cleanup(func() { viper.Set(constants.ViperSecretKey, "") })

	st := storetest.New(t)
	model, err := sentiment.NewLexiconModel()
	require.NoError(t, err)

	authService := auth.NewService(testSecret)
	regionService := region.NewRegionService(st)
	rankingService := ranking.NewRankingService(st, regionService)
	reviewsService := reviews.NewReviewsService(st, sentiment.NewAnalyzer(model, nil), rankingService)
	cntrl := controller.NewController(
		authService,
		regionService,
		rankingService,
		reviewsService,
		curation.NewCurationService(st, regionService, curation.Config{}),
		providers.NewProvidersService(st, reviewsService, rankingService, providers.Config{}),
		contacts.NewContactsService(st, contacts.Config{}),
	)

	svc, err := NewAPIService(nil, authService, cntrl)
	require.NoError(t, err)
	return svc.Handler(), st
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := sonic.MarshalString(body)
		require.NoError(t, err)
		reader = strings.NewReader(raw)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/auth/login", "", auth.LoginAdminRequest{Name: "ops", Secret: testSecret})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp auth.LoginAdminResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.AuthToken)
	return resp.AuthToken
}

func TestAdminRoutesRequireToken(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/v1/admin/rankings/rerank", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp domain.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/rankings/rerank", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongSecret(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/v1/auth/login", "", auth.LoginAdminRequest{Name: "ops", Secret: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"name": "ops"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputePublishAndTopList(t *testing.T) {
	h, st := newTestAPI(t)
	token := login(t, h)

	gold := storetest.Restaurant(t, st, "Gold", "Austin", "TX",
		domain.SourceRating{Source: domain.SourceGoogle, AvgRating: 4.8, ReviewCount: 80})
	storetest.Restaurant(t, st, "Silver", "Austin", "TX",
		domain.SourceRating{Source: domain.SourceGoogle, AvgRating: 4.1, ReviewCount: 80})

	rec := do(t, h, http.MethodPost, "/api/v1/admin/rankings/compute", token, map[string]string{"region": "TX"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report ranking.Report
	decode(t, rec, &report)
	assert.Len(t, report.Computed, 2)
	assert.Equal(t, 2, report.Ranked)

	// nothing published yet
	rec = do(t, h, http.MethodGet, "/api/v1/regions/TX/top", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []*domain.RankedRestaurant
	decode(t, rec, &public)
	assert.Empty(t, public)

	rec = do(t, h, http.MethodPost, "/api/v1/admin/regions/TX/publish?n=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/regions/TX/top", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &public)
	require.Len(t, public, 1)
	assert.Equal(t, gold, public[0].RestaurantID)
	assert.Equal(t, "Gold", public[0].Name)
}

func TestComputeRankings_RequiresTarget(t *testing.T) {
	h, _ := newTestAPI(t)
	token := login(t, h)

	rec := do(t, h, http.MethodPost, "/api/v1/admin/rankings/compute", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReview(t *testing.T) {
	h, st := newTestAPI(t)
	id := storetest.Restaurant(t, st, "Bistro", "Austin", "TX",
		domain.SourceRating{Source: domain.SourceGoogle, AvgRating: 4.0, ReviewCount: 10})

	rec := do(t, h, http.MethodPost, "/api/v1/reviews", "", reviews.SubmitReviewRequest{RestaurantID: id, Rating: 6, Text: "great"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/reviews", "", reviews.SubmitReviewRequest{RestaurantID: id, Rating: 5, Text: "Excellent, would return."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// the submission refreshed the ranking
	r, err := st.GetRanking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, r.AutoRank)

	rec = do(t, h, http.MethodGet, "/api/v1/restaurants/"+strconv.FormatInt(id, 10)+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*domain.Review
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].CombinedSentiment)
}

func TestPreviewSentiment(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/v1/sentiment/preview", "", map[string]interface{}{"text": "ok"})
	require.Equal(t, http.StatusOK, rec.Code)

	var preview reviews.Preview
	decode(t, rec, &preview)
	assert.Equal(t, domain.SentimentNeutral, preview.Label)
	assert.Zero(t, preview.Confidence)
	assert.Nil(t, preview.Combined)
}

func TestNotFound(t *testing.T) {
	h, _ := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	token := login(t, h)
	rec = do(t, h, http.MethodPost, "/api/v1/admin/reviews/77/analyze", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
