package domain

import "time"

// AuditKind identifies the security-relevant action being recorded.
type AuditKind string

const (
	AuditRegistration AuditKind = "registration"
	AuditLogin        AuditKind = "login"
	AuditRoleGrant    AuditKind = "role_grant"
)

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent is an entry in the security audit trail.
type AuditEvent struct {
	Kind       AuditKind
	Outcome    string
	Username   string
	AccountID  string // empty when the account is unknown
	Role       string // optional
	Reason     string // optional, never contains credential material
	RemoteIP   string
	RequestID  string
	OccurredAt time.Time
}
