package ports

import (
	"context"

	"github.com/peliculas/catalog-api/internal/core/domain"
)

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}

// AuditService handles a single audit event taken off the queue.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
}
