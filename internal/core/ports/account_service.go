package ports

import (
	"context"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// RegisterInput carries a self-service signup.
type RegisterInput struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
}

// AdminSeed describes the privileged account created at startup.
type AdminSeed struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token   string
	Account *domain.PublicAccount
}

// AccountService exposes registration, authentication and account queries.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.PublicAccount, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ListAccounts(ctx context.Context) ([]*domain.PublicAccount, error)
	GetAccount(ctx context.Context, id string) (*domain.PublicAccount, error)
	GrantRole(ctx context.Context, accountID, role string) error
}
