package domain

import "errors"

// Registration.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrRegistrationFailed = errors.New("registration failed")
)

// Login and access.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrNoRoleAssigned     = errors.New("account has no role assigned")
)

// ErrInvalidInput reports a request the service refuses before touching storage.
var ErrInvalidInput = errors.New("invalid input")

// Lookups.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrRoleNotFound    = errors.New("role not found")
	ErrUnknownRole     = errors.New("unknown role")
)

// Catalog.
var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrDuplicateMovie    = errors.New("movie already exists")
)

// ErrConfigurationMissing is fatal at startup.
var ErrConfigurationMissing = errors.New("configuration missing")
