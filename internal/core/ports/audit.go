package ports

import (
	"context"

	"github.com/setlocale/registry/internal/core/domain"
)

type AuditRepository interface {
	Record(ctx context.Context, event domain.AuditEvent) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error)
}
