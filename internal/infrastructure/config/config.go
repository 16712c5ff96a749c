package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Password PasswordConfig
	Admin    AdminConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Audit    AuditConfig
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
	Issuer string `env:"JWT_ISSUER"`
}

type PasswordConfig struct {
	Algorithm  string `env:"PASSWORD_HASH, default=bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST,   default=12"`
}

// AdminConfig describes the account seeded with the Admin role at startup.
// Seeding is skipped when Username is empty.
type AdminConfig struct {
	Username    string `env:"ADMIN_USERNAME"`
	Email       string `env:"ADMIN_EMAIL"`
	Password    string `env:"ADMIN_PASSWORD"`
	DisplayName string `env:"ADMIN_DISPLAY_NAME"`
}

type PostgresConfig struct {
	URL          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS, default=10"`
}

type MongoConfig struct {
	Enabled  bool   `env:"MONGO_ENABLED, default=true"`
	URI      string `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,      default=peliculas"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type CacheConfig struct {
	TTL time.Duration `env:"CACHE_TTL, default=30s"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l. A blank JWT secret or database URL
// yields an error wrapping domain.ErrConfigurationMissing.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: JWT_SECRET: %w", domain.ErrConfigurationMissing)
	}
	if strings.TrimSpace(cfg.Postgres.URL) == "" {
		return nil, fmt.Errorf("config: DATABASE_URL: %w", domain.ErrConfigurationMissing)
	}
	if cfg.Admin.Username != "" && cfg.Admin.Password == "" {
		return nil, fmt.Errorf("config: ADMIN_PASSWORD: %w", domain.ErrConfigurationMissing)
	}
	return &cfg, nil
}
