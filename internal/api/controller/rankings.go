package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/service/ranking"
)

type computeRankingsRequest struct {
	Region        string  `json:"region" validate:"required_without=RestaurantIDs"`
	RestaurantIDs []int64 `json:"restaurant_ids" validate:"required_without=Region,dive,gt=0"`
}

func (c *Controller) ComputeRankings(ctx echo.Context) error {
	var request computeRankingsRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	var (
		report *ranking.Report
		err    error
	)
	if request.Region != "" {
		report, err = c.rankingService.ComputeRankings(ctx.Request().Context(), request.Region)
	} else {
		report, err = c.rankingService.ComputeRankingsForRestaurants(ctx.Request().Context(), request.RestaurantIDs)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, report)
}

func (c *Controller) Rerank(ctx echo.Context) error {
	changed, err := c.rankingService.Rerank(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]int{"reranked": changed})
}

func (c *Controller) GetWeights(ctx echo.Context) error {
	weights, err := c.rankingService.ActiveWeights(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, weights)
}

func (c *Controller) SaveWeights(ctx echo.Context) error {
	var request domain.RankingWeights
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	weights, err := c.rankingService.SaveWeights(ctx.Request().Context(), &request, ctx.QueryParam("activate") == "true")
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, weights)
}

type updateRankingRequest struct {
	IsPublished     *bool   `json:"is_published"`
	IsFeatured      *bool   `json:"is_featured"`
	ManualRank      *int    `json:"manual_rank" validate:"omitempty,gt=0"`
	ClearManualRank bool    `json:"clear_manual_rank"`
	AdminNotes      *string `json:"admin_notes" validate:"omitempty,max=2000"`
	IsExcluded      *bool   `json:"is_excluded"`
	ExclusionReason string  `json:"exclusion_reason" validate:"max=500"`
}

// UpdateRanking applies admin edits to one restaurant's ranking.
func (c *Controller) UpdateRanking(ctx echo.Context) error {
	restaurantID, err := paramID(ctx, "restaurant_id")
	if err != nil {
		return err
	}

	var request updateRankingRequest
	if err = ctx.Bind(&request); err != nil {
		return err
	}
	if request.ManualRank != nil && request.ClearManualRank {
		return constants.ErrBadRequest
	}

	reqCtx := ctx.Request().Context()
	if request.IsPublished != nil {
		if _, err = c.curationService.SetPublished(reqCtx, []int64{restaurantID}, *request.IsPublished); err != nil {
			return err
		}
	}
	if request.IsFeatured != nil {
		if err = c.curationService.SetFeatured(reqCtx, restaurantID, *request.IsFeatured); err != nil {
			return err
		}
	}
	if request.ManualRank != nil || request.ClearManualRank {
		if err = c.curationService.SetManualRank(reqCtx, restaurantID, request.ManualRank); err != nil {
			return err
		}
	}
	if request.AdminNotes != nil {
		if err = c.curationService.SetNotes(reqCtx, restaurantID, *request.AdminNotes); err != nil {
			return err
		}
	}
	if request.IsExcluded != nil {
		if err = c.curationService.SetExcluded(reqCtx, restaurantID, *request.IsExcluded, request.ExclusionReason); err != nil {
			return err
		}
	}

	return ctx.NoContent(http.StatusNoContent)
}
