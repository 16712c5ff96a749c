package domain

import (
	"strings"
	"time"
)

// Well-known roles. Names are matched exactly when authorizing requests.
const (
	RoleAdmin      = "Admin"
	RoleRegistered = "Registered"
)

// WellKnownRoles lists every role the service provisions at startup, ordered
// by privilege rank (most privileged first).
var WellKnownRoles = []string{RoleAdmin, RoleRegistered}

// RoleRank orders roles for claim selection; lower is more privileged.
// Unknown roles sort last.
func RoleRank(role string) int {
	for i, r := range WellKnownRoles {
		if strings.EqualFold(r, role) {
			return i
		}
	}
	return len(WellKnownRoles)
}

// CanonicalRole returns the well-known spelling of role, matched
// case-insensitively.
func CanonicalRole(role string) (string, bool) {
	for _, r := range WellKnownRoles {
		if strings.EqualFold(r, strings.TrimSpace(role)) {
			return r, true
		}
	}
	return "", false
}

// Normalize is the key used for case-insensitive uniqueness on usernames,
// emails and role names.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Account models a registered identity.
type Account struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	NormalizedUsername string    `json:"-"`
	Email              string    `json:"email"`
	NormalizedEmail    string    `json:"-"`
	DisplayName        string    `json:"display_name"`
	PasswordHash       string    `json:"-"`
	Roles              []string  `json:"roles,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// PublicAccount is the projection returned to callers. It never carries
// credential material.
type PublicAccount struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Public returns the public projection of a.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Email:       a.Email,
	}
}

// Role is a persisted role record.
type Role struct {
	ID             string
	Name           string
	NormalizedName string
	CreatedAt      time.Time
}

// Principal is the caller identity recovered from a validated token.
type Principal struct {
	AccountID string
	Username  string
	Role      string
}
