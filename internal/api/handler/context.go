package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// requestContext returns the request context carrying the caller's address
// and request ID, which services copy into audit events.
func requestContext(c echo.Context) context.Context {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = c.Request().Header.Get(echo.HeaderXRequestID)
	}
	return ports.WithRequestMeta(c.Request().Context(), ports.RequestMeta{
		RemoteIP:  c.RealIP(),
		RequestID: requestID,
	})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent yields 0.
func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}
