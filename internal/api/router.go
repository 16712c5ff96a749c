package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/api/handler"
	"github.com/peliculas/catalog-api/internal/api/middleware"
	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
	ophttp "github.com/peliculas/catalog-api/internal/infrastructure/http"
	"github.com/peliculas/catalog-api/internal/infrastructure/http/handlers"
)

// Deps carries everything NewRouter wires into the HTTP layer.
type Deps struct {
	Accounts ports.AccountService
	Catalog  ports.CatalogService
	Guard    ports.AccessGuard

	// Cache is optional; nil serves every catalog read from the database.
	Cache    middleware.ResponseStore
	CacheTTL time.Duration

	// Checks feed GET /health/ready.
	Checks map[string]handlers.Check

	Logger zerolog.Logger
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

var catalogPrefixes = []string{
	"/api/v1/categorias",
	"/api/v1/peliculas",
	"/api/v2/categorias",
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "peliculas",
		Registerer: d.Registerer,
	}))
	e.Use(middleware.OptionalAuth(d.Guard))
	e.Use(requestLogger(d.Logger))

	// --- Dependencies ---
	accountHandler := handler.NewAccountHandler(d.Accounts)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	adminOnly := middleware.RequireRole(d.Guard, domain.RoleAdmin)

	var catalogMW []echo.MiddlewareFunc
	if d.Cache != nil {
		catalogMW = append(catalogMW, middleware.ResponseCache(middleware.CacheConfig{
			Store:         d.Cache,
			TTL:           d.CacheTTL,
			PurgePrefixes: catalogPrefixes,
			Logger:        d.Logger,
		}))
	}

	v1 := e.Group("/api/v1")

	// --- Account routes ---
	usuarios := v1.Group("/usuarios")
	usuarios.POST("/registro", accountHandler.Register)
	usuarios.POST("/login", accountHandler.Login)
	usuarios.GET("", accountHandler.List, adminOnly)
	usuarios.GET("/:id", accountHandler.Get, adminOnly)
	usuarios.POST("/:id/roles", accountHandler.GrantRole, adminOnly)

	// --- Catalog routes ---
	categorias := v1.Group("/categorias", catalogMW...)
	categorias.GET("", catalogHandler.ListCategories)
	categorias.GET("/:id", catalogHandler.GetCategory)
	categorias.POST("", catalogHandler.CreateCategory, adminOnly)
	categorias.PATCH("/:id", catalogHandler.UpdateCategory, adminOnly)
	categorias.DELETE("/:id", catalogHandler.DeleteCategory, adminOnly)

	peliculas := v1.Group("/peliculas", catalogMW...)
	peliculas.GET("", catalogHandler.ListMovies)
	peliculas.GET("/buscar", catalogHandler.SearchMovies)
	peliculas.GET("/categoria/:id", catalogHandler.MoviesInCategory)
	peliculas.GET("/:id", catalogHandler.GetMovie)
	peliculas.POST("", catalogHandler.CreateMovie, adminOnly)
	peliculas.PATCH("/:id", catalogHandler.UpdateMovie, adminOnly)
	peliculas.DELETE("/:id", catalogHandler.DeleteMovie, adminOnly)

	v2 := e.Group("/api/v2")
	v2.Group("/categorias", catalogMW...).GET("", catalogHandler.V2ListCategories)

	// --- Health, metrics and docs (no auth required) ---
	ophttp.RegisterOps(e, d.Checks)

	return e
}

// requestLogger feeds one structured line per request into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev = ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID)
			if p, ok := middleware.PrincipalFrom(c); ok {
				ev = ev.Str("account_id", p.AccountID)
			}
			ev.Msg("request")
			return nil
		},
	})
}
