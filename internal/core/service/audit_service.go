package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that persists events through repo.
// A nil repo writes events to the log only.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process logs and persists a single audit event.
func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	entry := s.log.Info()
	if event.Outcome == domain.OutcomeFailure {
		entry = s.log.Warn()
	}
	entry.
		Str("kind", string(event.Kind)).
		Str("outcome", event.Outcome).
		Str("username", event.Username).
		Str("account_id", event.AccountID).
		Str("role", event.Role).
		Str("reason", event.Reason).
		Str("remote_ip", event.RemoteIP).
		Str("request_id", event.RequestID).
		Time("occurred_at", event.OccurredAt).
		Msg("audit")

	if s.repo == nil {
		return nil
	}
	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process audit event: %w", err)
	}
	return nil
}
