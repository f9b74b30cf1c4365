// Package providers imports restaurants, their rating and their reviews from
// external rating providers. Google Places is the only provider wired so far.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/domain/dto"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	// Places returns at most three pages of twenty results per search.
	maxSearchPages = 3
	detailsWorkers = 4
	detailsFields  = "place_id,name,website,rating,user_ratings_total,price_level,address_components,geometry,reviews"
)

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetRegionByCode(ctx context.Context, code string) (*domain.Region, error)
	UpsertRestaurantByExternalID(ctx context.Context, r *domain.Restaurant) (int64, error)
	UpsertSourceRating(ctx context.Context, rating *domain.SourceRating) error
	UpsertReview(ctx context.Context, review *domain.Review) (int64, error)
}

// Analyzer scores the reviews of freshly imported restaurants.
type Analyzer interface {
	AnalyzeRestaurant(ctx context.Context, restaurantID int64, onlyUnanalyzed bool) (int, error)
}

// Recomputer refreshes rankings of freshly imported restaurants.
type Recomputer interface {
	ComputeRankingsForRestaurants(ctx context.Context, ids []int64) (*ranking.Report, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	// RatePerSecond throttles calls to the Places API; zero means unlimited.
	RatePerSecond float64
	Timeout       time.Duration
}

type Service struct {
	store      Store
	analyzer   Analyzer
	recomputer Recomputer
	client     *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	newBackOff func() backoff.BackOff
}

// NewProvidersService builds the importer. analyzer and recomputer may be nil.
func NewProvidersService(store Store, analyzer Analyzer, recomputer Recomputer, cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &Service{
		store:      store,
		analyzer:   analyzer,
		recomputer: recomputer,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
		},
	}
}

// ImportReport summarises one region import.
type ImportReport struct {
	Region   string          `json:"region"`
	Found    int             `json:"found"`
	Imported []int64         `json:"imported"`
	Skipped  int             `json:"skipped"`
	Reviews  int             `json:"reviews"`
	Analysed int             `json:"analysed"`
	Ranking  *ranking.Report `json:"ranking,omitempty"`
}

// ImportRegion searches restaurants of a region, fetches their details and
// writes restaurants, their Google rating and reviews. Places whose details
// cannot be fetched are skipped. New or changed reviews are analysed before
// the imported restaurants are re-ranked.
func (s *Service) ImportRegion(ctx context.Context, regionCode, query string) (*ImportReport, error) {
	regionCode = strings.TrimSpace(regionCode)
	if regionCode == "" {
		return nil, fmt.Errorf("%w: region code is required", constants.ErrBadRequest)
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: places api key is not configured", constants.ErrBadRequest)
	}

	regionName := regionCode
	region, err := s.store.GetRegionByCode(ctx, regionCode)
	switch {
	case err == nil:
		regionName = region.Name
	case errors.Is(err, constants.ErrDBNotFound):
	default:
		return nil, fmt.Errorf("store.GetRegionByCode: %w", err)
	}

	if query == "" {
		query = "restaurants in " + regionName
	}
	ctx = logger.WithFields(ctx, "region", regionCode)

	results, err := s.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	batch := dto.NewImportBatch(regionCode)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(detailsWorkers)
	for _, result := range results {
		result := result
		eg.Go(func() error {
			details, err := s.details(egCtx, result.PlaceID)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				logger.Warnf(egCtx, "details place_id-%s: %s", result.PlaceID, err.Error())
				return nil
			}

			batch.Put(result.PlaceID, toImportedPlace(regionCode, result, details))
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, fmt.Errorf("err in goroutine: %w", err)
	}

	report := &ImportReport{
		Region:   regionCode,
		Found:    len(results),
		Imported: make([]int64, 0, batch.Len()),
		Skipped:  len(results) - batch.Len(),
	}

	for _, place := range batch.Places() {
		id, reviews, err := s.save(ctx, place)
		if err != nil {
			return nil, fmt.Errorf("save, external_id-%s: %w", *place.Restaurant.ExternalID, err)
		}
		report.Imported = append(report.Imported, id)
		report.Reviews += reviews
	}

	logger.Infof(ctx, "imported %d of %d places, %d reviews", len(report.Imported), report.Found, report.Reviews)

	if s.analyzer != nil {
		for _, id := range report.Imported {
			n, err := s.analyzer.AnalyzeRestaurant(ctx, id, true)
			if err != nil {
				return nil, fmt.Errorf("analyzer.AnalyzeRestaurant, restaurant_id-%d: %w", id, err)
			}
			report.Analysed += n
		}
	}

	if s.recomputer != nil && len(report.Imported) > 0 {
		report.Ranking, err = s.recomputer.ComputeRankingsForRestaurants(ctx, report.Imported)
		if err != nil {
			return nil, fmt.Errorf("recomputer.ComputeRankingsForRestaurants: %w", err)
		}
	}

	return report, nil
}

func (s *Service) save(ctx context.Context, place *dto.ImportedPlace) (id int64, reviews int, err error) {
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		id, err = s.store.UpsertRestaurantByExternalID(ctx, &place.Restaurant)
		if err != nil {
			return fmt.Errorf("store.UpsertRestaurantByExternalID: %w", err)
		}

		place.Rating.RestaurantID = id
		if err = s.store.UpsertSourceRating(ctx, &place.Rating); err != nil {
			return fmt.Errorf("store.UpsertSourceRating: %w", err)
		}

		for i := range place.Reviews {
			place.Reviews[i].RestaurantID = id
			if _, err = s.store.UpsertReview(ctx, &place.Reviews[i]); err != nil {
				return fmt.Errorf("store.UpsertReview: %w", err)
			}
		}
		return nil
	})
	return id, len(place.Reviews), err
}

func (s *Service) search(ctx context.Context, query string) ([]dto.PlaceResult, error) {
	var (
		results   []dto.PlaceResult
		pageToken string
	)

	for page := 0; page < maxSearchPages; page++ {
		params := url.Values{"key": {s.apiKey}}
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		} else {
			params.Set("query", query)
			params.Set("type", "restaurant")
		}

		var resp dto.PlacesSearchResponse
		if err := s.getJSON(ctx, "/textsearch/json", params, &resp, func() error { return checkStatus(resp.Status, resp.ErrorMessage) }); err != nil {
			return nil, err
		}

		results = append(results, resp.Results...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return results, nil
}

func (s *Service) details(ctx context.Context, placeID string) (*dto.PlaceDetails, error) {
	params := url.Values{
		"key":      {s.apiKey},
		"place_id": {placeID},
		"fields":   {detailsFields},
	}

	var resp dto.PlaceDetailsResponse
	if err := s.getJSON(ctx, "/details/json", params, &resp, func() error { return checkStatus(resp.Status, resp.ErrorMessage) }); err != nil {
		return nil, err
	}

	return &resp.Result, nil
}

// getJSON fetches and decodes one Places endpoint, retrying transport errors,
// 5xx answers and transient API statuses.
func (s *Service) getJSON(ctx context.Context, path string, params url.Values, dst interface{}, check func() error) error {
	endpoint := s.baseURL + path + "?" + params.Encode()

	return backoff.Retry(
		func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("http.NewRequestWithContext: %w", err))
			}

			resp, err := s.client.Do(req)
			if err != nil {
				return fmt.Errorf("http.Do: %w", err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			switch {
			case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
			case resp.StatusCode != http.StatusOK:
				return backoff.Permanent(fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status))
			}

			if err = sonic.ConfigDefault.NewDecoder(resp.Body).Decode(dst); err != nil {
				return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
			}

			return check()
		},
		backoff.WithContext(s.newBackOff(), ctx),
	)
}

var errTransientStatus = errors.New("transient places status")

func checkStatus(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	// a fresh next_page_token is reported invalid until it propagates
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR", "INVALID_REQUEST":
		return fmt.Errorf("%w: %s %s", errTransientStatus, status, message)
	default:
		return backoff.Permanent(fmt.Errorf("places status %s: %s", status, message))
	}
}

var genericPlaceTypes = map[string]struct{}{
	"restaurant":        {},
	"food":              {},
	"point_of_interest": {},
	"establishment":     {},
	"meal_takeaway":     {},
	"meal_delivery":     {},
	"store":             {},
}

func toImportedPlace(regionCode string, result dto.PlaceResult, details *dto.PlaceDetails) *dto.ImportedPlace {
	externalID := result.PlaceID
	areaCode, _ := details.Component("administrative_area_level_1")
	if areaCode == "" {
		areaCode = regionCode
	}
	_, city := details.Component("locality")
	country, _ := details.Component("country")

	name := details.Name
	if name == "" {
		name = result.Name
	}

	lat, lon := details.Geometry.Location.Lat, details.Geometry.Location.Lng
	if lat == 0 && lon == 0 {
		lat, lon = result.Geometry.Location.Lat, result.Geometry.Location.Lng
	}

	rating, total := details.Rating, details.UserRatingsTotal
	if total == 0 {
		rating, total = result.Rating, result.UserRatingsTotal
	}

	place := &dto.ImportedPlace{
		Restaurant: domain.Restaurant{
			ExternalID: &externalID,
			Name:       name,
			City:       city,
			AreaCode:   areaCode,
			Country:    country,
			Latitude:   &lat,
			Longitude:  &lon,
			Cuisine:    cuisine(result.Types),
			PriceLevel: details.PriceLevel,
			Website:    details.Website,
			IsActive:   result.BusinessStatus != "CLOSED_PERMANENTLY",
		},
		Rating: domain.SourceRating{
			Source:      domain.SourceGoogle,
			AvgRating:   rating,
			ReviewCount: total,
			DataQuality: dataQuality(details),
		},
		Reviews: make([]domain.Review, 0, len(details.Reviews)),
	}

	for _, r := range details.Reviews {
		reviewID := fmt.Sprintf("%s:%d", result.PlaceID, r.Time)
		language := r.Language
		if language == "" {
			language = "en"
		}
		place.Reviews = append(place.Reviews, domain.Review{
			Source:     domain.SourceGoogle,
			ExternalID: &reviewID,
			Author:     r.AuthorName,
			Rating:     r.Rating,
			Text:       r.Text,
			Language:   language,
			ReviewDate: time.Unix(r.Time, 0).UTC(),
		})
	}

	return place
}

func cuisine(types []string) string {
	for _, t := range types {
		if _, ok := genericPlaceTypes[t]; ok {
			continue
		}
		return strings.TrimSuffix(t, "_restaurant")
	}
	return ""
}

// dataQuality is the share of listing fields the provider filled in.
func dataQuality(d *dto.PlaceDetails) float64 {
	filled := 0
	for _, ok := range []bool{
		d.Website != "",
		len(d.AddressComponents) > 0,
		d.Geometry.Location.Lat != 0 || d.Geometry.Location.Lng != 0,
		len(d.Reviews) > 0,
	} {
		if ok {
			filled++
		}
	}
	return decimal.NewFromInt(int64(filled)).Div(decimal.NewFromInt(4)).Round(2).InexactFloat64()
}
