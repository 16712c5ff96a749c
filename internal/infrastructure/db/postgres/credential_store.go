package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

const (
	constraintUsername = "accounts_normalized_username_key"
	constraintEmail    = "accounts_normalized_email_key"
)

const accountColumns = `id, username, normalized_username, email, normalized_email, display_name, password_hash, created_at`

// CredentialStore implements ports.CredentialStore on PostgreSQL.
type CredentialStore struct {
	db *sql.DB // nil when bound to a transaction
	q  DBTX
}

// NewCredentialStore returns a store running each call in its own statement.
func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db, q: db}
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE normalized_username = $1`
	return s.scanOne(s.q.QueryRowContext(ctx, query, domain.Normalize(username)))
}

// FindByID treats an id that is not a UUID as an unknown account.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrAccountNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanOne(s.q.QueryRowContext(ctx, query, id))
}

func (s *CredentialStore) List(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY normalized_username`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a := &domain.Account{}
		if err := rows.Scan(&a.ID, &a.Username, &a.NormalizedUsername, &a.Email,
			&a.NormalizedEmail, &a.DisplayName, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *CredentialStore) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, normalized_username, email, normalized_email, display_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.q.ExecContext(ctx, query,
		a.ID, a.Username, a.NormalizedUsername, a.Email, a.NormalizedEmail, a.DisplayName, a.PasswordHash, a.CreatedAt)
	if err != nil {
		if name, ok := constraintViolation(err, sqlStateUniqueViolation); ok {
			switch name {
			case constraintUsername:
				return nil, domain.ErrDuplicateUsername
			case constraintEmail:
				return nil, domain.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := *a
	return &out, nil
}

// RolesOf returns the account's role names, most privileged first.
func (s *CredentialStore) RolesOf(ctx context.Context, accountID string) ([]string, error) {
	query :=
		`SELECT r.name FROM account_roles ar
		 JOIN roles r ON r.id = ar.role_id
		 WHERE ar.account_id = $1
		 ORDER BY r.name`

	rows, err := s.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	sort.SliceStable(roles, func(i, j int) bool {
		return domain.RoleRank(roles[i]) < domain.RoleRank(roles[j])
	})
	return roles, nil
}

func (s *CredentialStore) AssignRole(ctx context.Context, accountID, role string) error {
	var roleID string
	err := s.q.QueryRowContext(ctx,
		`SELECT id FROM roles WHERE normalized_name = $1`, domain.Normalize(role)).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	_, err = s.q.ExecContext(ctx,
		`INSERT INTO account_roles (account_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		accountID, roleID)
	if err != nil {
		if _, ok := constraintViolation(err, sqlStateForeignKeyViolation); ok {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *CredentialStore) RoleExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE normalized_name = $1)`, domain.Normalize(name)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// CreateRole inserts the role unless one with the same normalized name exists.
func (s *CredentialStore) CreateRole(ctx context.Context, name string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO roles (id, name, normalized_name) VALUES ($1, $2, $3)
		 ON CONFLICT (normalized_name) DO NOTHING`,
		uuid.NewString(), name, domain.Normalize(name))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// WithTx runs fn against a store bound to one transaction. Calls made on a
// store that is already transactional join the outer transaction.
func (s *CredentialStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.CredentialStore) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &CredentialStore{q: tx})
	})
}

func (s *CredentialStore) scanOne(row *sql.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.Username, &a.NormalizedUsername, &a.Email,
		&a.NormalizedEmail, &a.DisplayName, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
