package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/domain"
)

func (c *Controller) GetRegions(ctx echo.Context) error {
	regions, err := c.regionService.ListRegions(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, regions)
}

func (c *Controller) SaveRegion(ctx echo.Context) error {
	var request struct {
		Code      string   `json:"code" validate:"required,max=32"`
		Name      string   `json:"name" validate:"required,max=128"`
		Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
		Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	}
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	region, err := c.regionService.SaveRegion(ctx.Request().Context(), &domain.Region{
		Code:      request.Code,
		Name:      request.Name,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, region)
}

// GetTopList is the public list: published rankings only.
func (c *Controller) GetTopList(ctx echo.Context) error {
	top, err := c.curationService.TopN(ctx.Request().Context(), ctx.Param("code"), queryInt(ctx, "n", 0), true)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, top)
}

// GetCandidateList shows admins the full top list, published or not.
func (c *Controller) GetCandidateList(ctx echo.Context) error {
	top, err := c.curationService.TopN(ctx.Request().Context(), ctx.Param("code"), queryInt(ctx, "n", 0), false)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, top)
}

func (c *Controller) PublishTop(ctx echo.Context) error {
	published, err := c.curationService.PublishTop(ctx.Request().Context(), ctx.Param("code"), queryInt(ctx, "n", 0))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, published)
}

func (c *Controller) PushTop(ctx echo.Context) error {
	payload, err := c.curationService.Push(ctx.Request().Context(), ctx.Param("code"), queryInt(ctx, "n", 0))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, payload)
}
