package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/api/metrics"
)

const headerXCache = "X-Cache"

// ResponseStore persists rendered response bodies by request URI.
type ResponseStore interface {
	Get(ctx context.Context, uri string) ([]byte, bool, error)
	Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error
	Purge(ctx context.Context, uriPrefix string) error
}

// CacheConfig configures ResponseCache.
type CacheConfig struct {
	Store ResponseStore
	TTL   time.Duration
	// PurgePrefixes are invalidated after every successful write.
	PurgePrefixes []string
	Logger        zerolog.Logger
}

// ResponseCache serves anonymous GET requests from Store and invalidates
// PurgePrefixes after successful writes. Store failures are logged and the
// request proceeds uncached.
func ResponseCache(cfg CacheConfig) echo.MiddlewareFunc {
	maxAge := fmt.Sprintf("public, max-age=%d", int(cfg.TTL.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if req.Method != http.MethodGet {
				if err := next(c); err != nil {
					return err
				}
				if c.Response().Status < http.StatusBadRequest {
					purge(req.Context(), cfg)
				}
				return nil
			}

			// Authenticated reads bypass the shared cache.
			if req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}

			key := req.RequestURI
			body, hit, err := cfg.Store.Get(req.Context(), key)
			switch {
			case err != nil:
				metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
				cfg.Logger.Warn().Err(err).Str("uri", key).Msg("response cache lookup failed")
			case hit:
				metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
				c.Response().Header().Set(headerXCache, "HIT")
				c.Response().Header().Set(echo.HeaderCacheControl, maxAge)
				return c.JSONBlob(http.StatusOK, body)
			default:
				metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
			}

			c.Response().Header().Set(headerXCache, "MISS")
			c.Response().Header().Set(echo.HeaderCacheControl, maxAge)

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}

			if c.Response().Status == http.StatusOK {
				if err := cfg.Store.Set(req.Context(), key, rec.buf.Bytes(), cfg.TTL); err != nil {
					cfg.Logger.Warn().Err(err).Str("uri", key).Msg("response cache store failed")
				}
			}
			return nil
		}
	}
}

func purge(ctx context.Context, cfg CacheConfig) {
	for _, prefix := range cfg.PurgePrefixes {
		if err := cfg.Store.Purge(ctx, prefix); err != nil {
			cfg.Logger.Warn().Err(err).Str("prefix", prefix).Msg("response cache purge failed")
		}
	}
}

// bodyRecorder tees the response body so it can be cached after the handler
// returns.
type bodyRecorder struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
