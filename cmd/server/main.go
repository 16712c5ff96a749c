package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	_ "github.com/peliculas/catalog-api/docs"
	"github.com/peliculas/catalog-api/internal/api"
	"github.com/peliculas/catalog-api/internal/api/metrics"
	"github.com/peliculas/catalog-api/internal/api/middleware"
	"github.com/peliculas/catalog-api/internal/core/ports"
	"github.com/peliculas/catalog-api/internal/core/service"
	"github.com/peliculas/catalog-api/internal/infrastructure/config"
	"github.com/peliculas/catalog-api/internal/infrastructure/db/mongo"
	"github.com/peliculas/catalog-api/internal/infrastructure/db/postgres"
	"github.com/peliculas/catalog-api/internal/infrastructure/db/redis"
	"github.com/peliculas/catalog-api/internal/infrastructure/http/handlers"
	"github.com/peliculas/catalog-api/internal/infrastructure/queue"
	"github.com/peliculas/catalog-api/internal/infrastructure/security"
	"github.com/peliculas/catalog-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "peliculas-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- PostgreSQL ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.URL,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	if err := postgres.RunMigrations(ctx, db); err != nil {
		return err
	}

	checks := map[string]handlers.Check{
		"postgres": db.PingContext,
	}

	// --- Security ---
	hasher, err := security.NewHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return err
	}
	hasher = security.NewTimedHasher(hasher, metrics.PasswordHashDuration)

	var tokenOpts []security.Option
	if cfg.JWT.Issuer != "" {
		tokenOpts = append(tokenOpts, security.WithIssuer(cfg.JWT.Issuer))
	}
	issuer, err := security.NewTokenIssuer(cfg.JWT.Secret, tokenOpts...)
	if err != nil {
		return err
	}
	guard, err := security.NewGuard(cfg.JWT.Secret, tokenOpts...)
	if err != nil {
		return err
	}

	// --- Audit trail ---
	var auditRepo ports.AuditRepository
	if cfg.Mongo.Enabled {
		client, mdb, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "peliculas-api",
		})
		if err != nil {
			return err
		}
		defer disconnectMongo(client, log)

		repo := mongo.NewAuditRepository(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		auditRepo = repo
		checks["mongodb"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditService(auditRepo, logger.Component("audit")), logger.Component("audit_dispatcher"))
	dispatcher.Start(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("audit dispatcher did not drain")
		}
	}()

	// --- Response cache ---
	var cache middleware.ResponseStore
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)

		cache = redis.NewResponseCache(rdb)
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	// --- Services ---
	store := postgres.NewCredentialStore(db)
	roles := service.NewRoleProvisioner(store, logger.Component("roles"))
	if err := roles.ProvisionDefaults(ctx); err != nil {
		return err
	}

	accounts := service.NewAccountService(store, roles, hasher, issuer, dispatcher, logger.Component("accounts"))
	if err := accounts.SeedAdmin(ctx, ports.AdminSeed{
		Username:    cfg.Admin.Username,
		Email:       cfg.Admin.Email,
		DisplayName: cfg.Admin.DisplayName,
		Password:    cfg.Admin.Password,
	}); err != nil {
		return err
	}

	catalog := service.NewCatalogService(
		postgres.NewCategoryRepository(db),
		postgres.NewMovieRepository(db),
		logger.Component("catalog"),
	)

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Catalog:  catalog,
		Guard:    guard,
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL,
		Checks:   checks,
		Logger:   logger.Component("http"),
	})

	// --- Serve until signalled ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigc:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func closeDB(db *sql.DB, log zerolog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("close postgres")
	}
}

func disconnectMongo(client *mongodriver.Client, log zerolog.Logger) {
	if err := mongo.Disconnect(context.Background(), client); err != nil {
		log.Warn().Err(err).Msg("disconnect mongodb")
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis")
	}
}
