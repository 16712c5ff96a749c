package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

const principalKey = "principal"

// OptionalAuth resolves the caller when a valid bearer token is present and
// stores the principal in the context. A missing or unusable token leaves the
// request anonymous; RequireRole turns that into 401 where it matters.
func OptionalAuth(guard ports.AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil || raw == "" {
				return next(c)
			}
			if p, err := guard.Authorize(raw, ""); err == nil {
				c.Set(principalKey, p)
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the caller resolved by OptionalAuth or RequireRole.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// bearerToken extracts the token from the Authorization header. An absent
// header yields "" and no error.
func bearerToken(c echo.Context) (string, error) {
	authHeader := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if authHeader == "" {
		return "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
	}
	return strings.TrimSpace(parts[1]), nil
}
