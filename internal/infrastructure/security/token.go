// Package security holds the credential hashing and session token adapters.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

const (
	// TokenLifetime is how long an issued session token stays valid.
	TokenLifetime = 7 * 24 * time.Hour
	// ClockSkew is the tolerance applied to exp/nbf/iat when validating.
	ClockSkew = 30 * time.Second
)

// Claims is the payload of a session token.
type Claims struct {
	Name   string `json:"unique_name"`
	NameID string `json:"nameid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type tokenConfig struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customises a TokenIssuer or Guard.
type Option func(*tokenConfig)

// WithIssuer sets the iss claim on issued tokens and requires it when validating.
func WithIssuer(issuer string) Option {
	return func(c *tokenConfig) { c.issuer = strings.TrimSpace(issuer) }
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *tokenConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func newTokenConfig(secret string, opts []Option) (tokenConfig, error) {
	if strings.TrimSpace(secret) == "" {
		return tokenConfig{}, fmt.Errorf("%w: token signing secret is empty", domain.ErrConfigurationMissing)
	}
	cfg := tokenConfig{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, nil
}

// TokenIssuer signs HS256 session tokens.
type TokenIssuer struct {
	cfg tokenConfig
}

// NewTokenIssuer returns an issuer bound to secret. An empty secret is a
// configuration error.
func NewTokenIssuer(secret string, opts ...Option) (*TokenIssuer, error) {
	cfg, err := newTokenConfig(secret, opts)
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue builds and signs a token for the given identity and role.
func (ti *TokenIssuer) Issue(accountID, username, role string) (string, error) {
	if accountID == "" || username == "" {
		return "", errors.New("issue token: missing subject")
	}
	if role == "" {
		return "", fmt.Errorf("issue token: %w", domain.ErrNoRoleAssigned)
	}

	now := ti.cfg.now().UTC()
	claims := Claims{
		Name:   username,
		NameID: accountID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.cfg.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
			ID:        uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(ti.cfg.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Guard validates session tokens. It holds no mutable state and is safe for
// concurrent use.
type Guard struct {
	cfg    tokenConfig
	parser *jwt.Parser
}

// NewGuard returns a guard that validates tokens signed with secret.
func NewGuard(secret string, opts ...Option) (*Guard, error) {
	cfg, err := newTokenConfig(secret, opts)
	if err != nil {
		return nil, err
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(ClockSkew),
		jwt.WithTimeFunc(cfg.now),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}

	return &Guard{cfg: cfg, parser: jwt.NewParser(parserOpts...)}, nil
}

// Authorize validates rawToken and checks the embedded role against
// requiredRole (exact match). With no token and no required role the caller
// is anonymous and (nil, nil) is returned.
func (g *Guard) Authorize(rawToken, requiredRole string) (*domain.Principal, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		if requiredRole == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	p, err := g.parse(rawToken)
	if err != nil {
		return nil, err
	}

	if requiredRole != "" && p.Role != requiredRole {
		return p, fmt.Errorf("%w: role %q required", domain.ErrForbidden, requiredRole)
	}
	return p, nil
}

func (g *Guard) parse(rawToken string) (*domain.Principal, error) {
	claims := &Claims{}
	tok, err := g.parser.ParseWithClaims(rawToken, claims, func(*jwt.Token) (any, error) {
		return g.cfg.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.NameID == "" || claims.Name == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrUnauthenticated)
	}

	return &domain.Principal{
		AccountID: claims.NameID,
		Username:  claims.Name,
		Role:      claims.Role,
	}, nil
}
