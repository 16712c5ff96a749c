package service

import (
	"context"
	"errors"
	"testing"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

func TestRoleProvisioner_ProvisionDefaults(t *testing.T) {
	store := newMemStore()
	p := NewRoleProvisioner(store, discardLogger)

	if err := p.ProvisionDefaults(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.ProvisionDefaults(context.Background()); err != nil {
		t.Fatalf("second run must be idempotent, got %v", err)
	}

	for _, role := range domain.WellKnownRoles {
		if ok, _ := store.RoleExists(context.Background(), role); !ok {
			t.Errorf("role %q not provisioned", role)
		}
	}
	if len(store.roles) != len(domain.WellKnownRoles) {
		t.Errorf("expected %d roles, got %d", len(domain.WellKnownRoles), len(store.roles))
	}
}

func TestRoleProvisioner_EnsureRole_Canonicalizes(t *testing.T) {
	store := newMemStore()
	p := NewRoleProvisioner(store, discardLogger)

	if err := p.EnsureRole(context.Background(), nil, "registered"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.roles["REGISTERED"]; got != domain.RoleRegistered {
		t.Errorf("expected stored name %q, got %q", domain.RoleRegistered, got)
	}
}

func TestRoleProvisioner_EnsureRole_Unknown(t *testing.T) {
	p := NewRoleProvisioner(newMemStore(), discardLogger)

	err := p.EnsureRole(context.Background(), nil, "Moderator")
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
