package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/api/metrics"
	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// RequireRole admits only callers whose token carries role. The token is checked on
// every call, so an expired or tampered token fails here even if OptionalAuth
// ran earlier in the chain.
func RequireRole(guard ports.AccessGuard, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return err
			}

			p, err := guard.Authorize(raw, role)
			if err != nil {
				reason := "unauthenticated"
				if errors.Is(err, domain.ErrForbidden) {
					reason = "forbidden"
				}
				metrics.AccessDeniedTotal.WithLabelValues(reason).Inc()
				return err
			}

			c.Set(principalKey, p)
			return next(c)
		}
	}
}
