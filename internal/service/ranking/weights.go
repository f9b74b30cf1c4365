package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
)

func (s *Service) ActiveWeights(ctx context.Context) (*domain.RankingWeights, error) {
	w, err := s.store.GetActiveWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.GetActiveWeights: %w", err)
	}
	return w, nil
}

// SaveWeights stores a named weights configuration and optionally makes it
// the active one. Scores are not recomputed; the next batch picks it up.
func (s *Service) SaveWeights(ctx context.Context, w *domain.RankingWeights, activate bool) (*domain.RankingWeights, error) {
	if err := validateWeights(w); err != nil {
		return nil, err
	}
	if w.CustomProviders == nil {
		w.CustomProviders = domain.ProviderWeights{}
	}

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		id, err := s.store.SaveWeights(ctx, w)
		if err != nil {
			return fmt.Errorf("store.SaveWeights: %w", err)
		}
		w.ID = id

		if activate {
			if err = s.store.ActivateWeights(ctx, w.Name); err != nil {
				return fmt.Errorf("store.ActivateWeights: %w", err)
			}
			w.IsActive = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

func validateWeights(w *domain.RankingWeights) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return fmt.Errorf("%w: weights name is required", constants.ErrBadRequest)
	}

	for name, v := range w.Providers() {
		if v < 0 {
			return fmt.Errorf("%w: provider %s has a negative weight", constants.ErrBadRequest, name)
		}
	}

	for name, v := range map[string]float64{
		"sentiment_weight":    w.SentimentWeight,
		"text_weight":         w.TextWeight,
		"user_review_weight":  w.UserReviewWeight,
		"data_quality_weight": w.DataQualityWeight,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1]", constants.ErrBadRequest, name)
		}
	}

	if w.MinReviewsThreshold < 0 || w.RecencyDecayDays < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", constants.ErrBadRequest)
	}
	return nil
}

// EnsureWeights activates the default configuration when none is active.
func (s *Service) EnsureWeights(ctx context.Context) (*domain.RankingWeights, error) {
	w, err := s.store.GetActiveWeights(ctx)
	switch {
	case err == nil:
		return w, nil
	case errors.Is(err, constants.ErrNoActiveWeights):
		defaults := domain.DefaultRankingWeights()
		logger.Infof(ctx, "no active ranking weights, activating %q", defaults.Name)
		return s.SaveWeights(ctx, &defaults, true)
	default:
		return nil, fmt.Errorf("store.GetActiveWeights: %w", err)
	}
}
