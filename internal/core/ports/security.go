package ports

import "github.com/peliculas/catalog-api/internal/core/domain"

// CredentialHasher hides the password hashing algorithm.
type CredentialHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches digest. A mismatch is not an
	// error; err is reserved for malformed digests.
	Verify(password, digest string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(accountID, username, role string) (string, error)
}

// AccessGuard validates a raw bearer token and enforces a required role.
// An empty requiredRole means any caller may pass, including anonymous ones.
type AccessGuard interface {
	Authorize(rawToken, requiredRole string) (*domain.Principal, error)
}
