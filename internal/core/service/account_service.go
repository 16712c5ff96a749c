package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// AccountService implements registration, login and account queries.
type AccountService struct {
	store  ports.CredentialStore
	roles  *RoleProvisioner
	hasher ports.CredentialHasher
	issuer ports.TokenIssuer
	audit  ports.AuditRecorder
	log    zerolog.Logger
	now    func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAccountService(
	store ports.CredentialStore,
	roles *RoleProvisioner,
	hasher ports.CredentialHasher,
	issuer ports.TokenIssuer,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AccountService {
	if audit == nil {
		audit = nopRecorder{}
	}
	return &AccountService{
		store:  store,
		roles:  roles,
		hasher: hasher,
		issuer: issuer,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

// Register creates a self-service account with the Registered role.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PublicAccount, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}

	// Fast path; the unique constraint still decides races.
	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		s.record(ctx, domain.AuditRegistration, domain.OutcomeFailure, username, "", "", "duplicate_username")
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}

	created, err := s.createWithRole(ctx, ports.AdminSeed{
		Username:    username,
		Email:       email,
		DisplayName: in.DisplayName,
		Password:    in.Password,
	}, domain.RoleRegistered)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			s.record(ctx, domain.AuditRegistration, domain.OutcomeFailure, username, "", "", "duplicate_username")
			return nil, domain.ErrDuplicateUsername
		case errors.Is(err, domain.ErrDuplicateEmail):
			s.record(ctx, domain.AuditRegistration, domain.OutcomeFailure, username, "", "", "duplicate_email")
			return nil, domain.ErrDuplicateEmail
		case errors.Is(err, domain.ErrInvalidInput):
			s.record(ctx, domain.AuditRegistration, domain.OutcomeFailure, username, "", "", "invalid_password")
			return nil, err
		}
		s.log.Error().Err(err).Str("username", username).Msg("registration failed")
		s.record(ctx, domain.AuditRegistration, domain.OutcomeFailure, username, "", "", "store_error")
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}

	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	s.record(ctx, domain.AuditRegistration, domain.OutcomeSuccess, created.Username, created.ID, domain.RoleRegistered, "")
	return created.Public(), nil
}

// SeedAdmin creates the configured administrator when it does not exist yet.
// It is the only path that creates an account holding Admin directly.
func (s *AccountService) SeedAdmin(ctx context.Context, seed ports.AdminSeed) error {
	seed.Username = strings.TrimSpace(seed.Username)
	if seed.Username == "" {
		return nil
	}
	if seed.Password == "" {
		return fmt.Errorf("seed admin: %w: password is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(seed.Email) == "" {
		seed.Email = seed.Username
	}

	if _, err := s.store.FindByUsername(ctx, seed.Username); err == nil {
		s.log.Debug().Str("username", seed.Username).Msg("admin account already present")
		return nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	created, err := s.createWithRole(ctx, seed, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("admin account seeded")
	return nil
}

// createWithRole persists the account and its single role in one transaction
// so a failure never leaves an account without a role.
func (s *AccountService) createWithRole(ctx context.Context, in ports.AdminSeed, role string) (*domain.Account, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	account := &domain.Account{
		ID:                 uuid.NewString(),
		Username:           in.Username,
		NormalizedUsername: domain.Normalize(in.Username),
		Email:              strings.TrimSpace(in.Email),
		NormalizedEmail:    domain.Normalize(in.Email),
		DisplayName:        displayName,
		PasswordHash:       hash,
		CreatedAt:          s.now().UTC(),
	}

	var created *domain.Account
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		c, err := tx.Create(ctx, account)
		if err != nil {
			return err
		}
		if err := s.roles.EnsureRole(ctx, tx, role); err != nil {
			return err
		}
		if err := tx.AssignRole(ctx, c.ID, role); err != nil {
			return fmt.Errorf("assign role %s: %w", role, err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.Roles = []string{role}
	return created, nil
}

// Login verifies the credentials and issues a session token. Unknown
// usernames and wrong passwords produce the same ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.record(ctx, domain.AuditLogin, domain.OutcomeFailure, username, "", "", "missing_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.burnVerify(password)
			s.record(ctx, domain.AuditLogin, domain.OutcomeFailure, username, "", "", "unknown_username")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("stored password digest is unreadable")
	}
	if !ok {
		s.record(ctx, domain.AuditLogin, domain.OutcomeFailure, account.Username, account.ID, "", "bad_password")
		return nil, domain.ErrInvalidCredentials
	}

	roles, err := s.store.RolesOf(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("login: roles: %w", err)
	}
	if len(roles) == 0 {
		s.log.Error().Str("account_id", account.ID).Msg("account has no role; refusing to issue token")
		s.record(ctx, domain.AuditLogin, domain.OutcomeFailure, account.Username, account.ID, "", "no_role")
		return nil, fmt.Errorf("login %s: %w", account.ID, domain.ErrNoRoleAssigned)
	}
	role := roles[0]

	token, err := s.issuer.Issue(account.ID, account.Username, role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.record(ctx, domain.AuditLogin, domain.OutcomeSuccess, account.Username, account.ID, role, "")
	return &ports.LoginResult{Token: token, Account: account.Public()}, nil
}

// ListAccounts returns every account ordered by username.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*domain.PublicAccount, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*domain.PublicAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out, nil
}

// GetAccount returns one account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.PublicAccount, error) {
	account, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

// GrantRole assigns a well-known role to an existing account. Callers must
// already be authorized as Admin.
func (s *AccountService) GrantRole(ctx context.Context, accountID, role string) error {
	canonical, ok := domain.CanonicalRole(role)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	account, err := s.store.FindByID(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx ports.CredentialStore) error {
		if err := s.roles.EnsureRole(ctx, tx, canonical); err != nil {
			return err
		}
		return tx.AssignRole(ctx, account.ID, canonical)
	})
	if err != nil {
		s.record(ctx, domain.AuditRoleGrant, domain.OutcomeFailure, account.Username, account.ID, canonical, "store_error")
		return fmt.Errorf("grant role: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Str("role", canonical).Msg("role granted")
	s.record(ctx, domain.AuditRoleGrant, domain.OutcomeSuccess, account.Username, account.ID, canonical, "")
	return nil
}

// burnVerify spends the same work as a real verification so response timing
// does not reveal whether the username exists.
func (s *AccountService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		digest, err := s.hasher.Hash(hex.EncodeToString(buf))
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare dummy digest")
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
	}
}

func (s *AccountService) record(ctx context.Context, kind domain.AuditKind, outcome, username, accountID, role, reason string) {
	meta := ports.RequestMetaFrom(ctx)
	s.audit.Record(domain.AuditEvent{
		Kind:       kind,
		Outcome:    outcome,
		Username:   username,
		AccountID:  accountID,
		Role:       role,
		Reason:     reason,
		RemoteIP:   meta.RemoteIP,
		RequestID:  meta.RequestID,
		OccurredAt: s.now().UTC(),
	})
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}
