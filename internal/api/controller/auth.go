package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/service/auth"
)

func (c *Controller) LoginAdmin(ctx echo.Context) error {
	var request auth.LoginAdminRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}

	resp, err := c.authService.LoginAdmin(ctx.Request().Context(), &request)
	if err != nil {
		return err
	}

	ctx.SetCookie(&http.Cookie{
		Name:     constants.CookieKeySecretToken,
		Value:    resp.AuthToken,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	return ctx.JSON(http.StatusOK, resp)
}
