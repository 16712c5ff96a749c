package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peliculas/catalog-api/internal/api/metrics"
	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type registerRequest struct {
	Username    string `json:"username"    validate:"required,min=3,max=64"`
	Email       string `json:"email"       validate:"required,email,max=254"`
	DisplayName string `json:"displayName" validate:"max=128"`
	Password    string `json:"password"    validate:"required,min=6,maxbytes=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string                `json:"token"`
	Account *domain.PublicAccount `json:"usuario"`
}

type grantRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Register creates a self-service account holding the Registered role.
//
// @Summary      Register a new account
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/v1/usuarios/registro [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	account, err := h.accounts.Register(requestContext(c), ports.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return respond(c, http.StatusOK, account)
}

// Login verifies credentials and returns a bearer token.
//
// @Summary      Login
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Router       /api/v1/usuarios/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.ErrInvalidCredentials
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return domain.ErrInvalidCredentials
	}

	res, err := h.accounts.Login(requestContext(c), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return respond(c, http.StatusOK, loginResponse{Token: res.Token, Account: res.Account})
}

// List returns every account ordered by username.
//
// @Summary      List accounts
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /api/v1/usuarios [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accounts.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, accounts)
}

// Get returns one account.
//
// @Summary      Get an account
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/v1/usuarios/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.accounts.GetAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, account)
}

// GrantRole assigns a role to an account.
//
// @Summary      Grant a role
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Account ID"
// @Param        body  body      grantRoleRequest  true  "Role name"
// @Success      200   {object}  Envelope
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /api/v1/usuarios/{id}/roles [post]
func (h *AccountHandler) GrantRole(c echo.Context) error {
	var req grantRoleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.GrantRole(requestContext(c), c.Param("id"), req.Role); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil)
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername), errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrNoRoleAssigned):
		return "no_role"
	default:
		return "error"
	}
}
