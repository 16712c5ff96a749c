package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/api/handler"
	"github.com/peliculas/catalog-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders them in the response envelope. Unexpected
// errors are logged and answered with a generic message.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.ErrorEnvelope(code, msg))
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Same body for unknown user and wrong password.
		return http.StatusBadRequest, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusBadRequest, domain.ErrDuplicateUsername.Error()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, domain.ErrDuplicateEmail.Error()
	case errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest, domain.ErrUnknownRole.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, domain.ErrAccountNotFound.Error()
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, domain.ErrCategoryNotFound.Error()
	case errors.Is(err, domain.ErrMovieNotFound):
		return http.StatusNotFound, domain.ErrMovieNotFound.Error()
	case errors.Is(err, domain.ErrDuplicateCategory):
		return http.StatusConflict, domain.ErrDuplicateCategory.Error()
	case errors.Is(err, domain.ErrDuplicateMovie):
		return http.StatusConflict, domain.ErrDuplicateMovie.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
