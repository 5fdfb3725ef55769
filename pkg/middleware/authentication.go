package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/pkg/tracing"
)

// AdminToken guards the admin surface with a static bearer token. An empty
// configured token disables the guard, which is the local-dev default.
func AdminToken(logger ectologger.Logger, token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			ctx, span := tracing.StartSpan(ctx, "middleware.AdminToken")
			defer span.End()

			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				logger.WithContext(ctx).Warn("admin request is missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer")
			}

			raw := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
				logger.WithContext(ctx).Warn("admin token is invalid")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			return next(c)
		}
	}
}
