package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ImportPlaces(ctx echo.Context) error {
	var request struct {
		Region string `json:"region" validate:"required"`
		Query  string `json:"query"`
	}
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	report, err := c.providersService.ImportRegion(ctx.Request().Context(), request.Region, request.Query)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, report)
}

func (c *Controller) EnrichEmails(ctx echo.Context) error {
	n, err := c.contactsService.EnrichEmails(ctx.Request().Context(), uint64(queryInt(ctx, "limit", 100)))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]int{"found": n})
}
