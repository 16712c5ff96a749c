package ports

import (
	"context"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// CredentialStore persists accounts, roles and role assignments.
//
// Username and email uniqueness is enforced by the storage layer: Create
// returns domain.ErrDuplicateUsername or domain.ErrDuplicateEmail when a
// concurrent writer won the race.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// List returns every account ordered by username.
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	// RolesOf returns the account's role names ordered by domain.RoleRank.
	RolesOf(ctx context.Context, accountID string) ([]string, error)
	AssignRole(ctx context.Context, accountID, role string) error
	RoleExists(ctx context.Context, name string) (bool, error)
	// CreateRole is append-only and idempotent.
	CreateRole(ctx context.Context, name string) error

	// WithTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx CredentialStore) error) error
}
