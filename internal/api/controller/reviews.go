package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/service/reviews"
)

func (c *Controller) PreviewSentiment(ctx echo.Context) error {
	var request struct {
		Text     string   `json:"text" validate:"max=10000"`
		Language string   `json:"language"`
		Stars    *float64 `json:"stars" validate:"omitempty,gte=1,lte=5"`
	}
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	preview, err := c.reviewsService.PreviewText(ctx.Request().Context(), request.Text, request.Language, request.Stars)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, preview)
}

func (c *Controller) SubmitReview(ctx echo.Context) error {
	var request reviews.SubmitReviewRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	review, err := c.reviewsService.SubmitReview(ctx.Request().Context(), request)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, review)
}

func (c *Controller) ListReviews(ctx echo.Context) error {
	restaurantID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	list, err := c.reviewsService.ListReviews(ctx.Request().Context(), restaurantID, uint64(queryInt(ctx, "limit", 50)))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, list)
}

func (c *Controller) AnalyzeReview(ctx echo.Context) error {
	reviewID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	review, err := c.reviewsService.AnalyzeReview(ctx.Request().Context(), reviewID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, review)
}

func (c *Controller) AnalyzeRestaurant(ctx echo.Context) error {
	restaurantID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	n, err := c.reviewsService.AnalyzeRestaurant(ctx.Request().Context(), restaurantID, ctx.QueryParam("only_unanalyzed") == "true")
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]int{"analyzed": n})
}

func (c *Controller) ListKeywords(ctx echo.Context) error {
	keywords, err := c.reviewsService.ListKeywords(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, keywords)
}

func (c *Controller) AddKeyword(ctx echo.Context) error {
	var request reviews.AddKeywordRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	kw, err := c.reviewsService.AddKeyword(ctx.Request().Context(), request)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, kw)
}

func (c *Controller) DeactivateKeyword(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = c.reviewsService.SetKeywordActive(ctx.Request().Context(), id, false); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}
