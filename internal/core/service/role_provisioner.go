package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// RoleProvisioner makes sure well-known roles exist before they are assigned.
type RoleProvisioner struct {
	store ports.CredentialStore
	log   zerolog.Logger
}

func NewRoleProvisioner(store ports.CredentialStore, log zerolog.Logger) *RoleProvisioner {
	return &RoleProvisioner{store: store, log: log}
}

// ProvisionDefaults ensures every well-known role exists. It runs once at
// startup, before the HTTP listener accepts traffic.
func (p *RoleProvisioner) ProvisionDefaults(ctx context.Context) error {
	for _, role := range domain.WellKnownRoles {
		if err := p.EnsureRole(ctx, p.store, role); err != nil {
			return err
		}
	}
	return nil
}

// EnsureRole creates name through store if it is absent. Pass the
// transactional store when called from inside a unit of work; nil uses the
// provisioner's own store.
func (p *RoleProvisioner) EnsureRole(ctx context.Context, store ports.CredentialStore, name string) error {
	if store == nil {
		store = p.store
	}

	role, ok := domain.CanonicalRole(name)
	if !ok {
		return fmt.Errorf("ensure role %q: %w", name, domain.ErrUnknownRole)
	}

	exists, err := store.RoleExists(ctx, role)
	if err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	if exists {
		return nil
	}

	if err := store.CreateRole(ctx, role); err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	p.log.Info().Str("role", role).Msg("role provisioned")
	return nil
}
