package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/logger"
)

// AdminMiddleware accepts an admin token from the Authorization header
// ("Bearer <token>") or from the admin cookie.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		raw := strings.TrimSpace(strings.TrimPrefix(ctx.Request().Header.Get(constants.HeaderAuthorization), "Bearer "))
		if raw == "" {
			cookie, err := ctx.Cookie(constants.CookieKeySecretToken)
			if err != nil {
				return constants.ErrMissingToken
			}
			raw = cookie.Value
		}

		admin, err := svc.authService.Authorize(raw)
		if err != nil {
			return err
		}

		ctx.Set(constants.CtxKeyAdmin, admin)
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(logger.WithFields(req.Context(), "admin", admin)))

		return next(ctx)
	}
}
