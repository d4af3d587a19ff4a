package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/setlocale/registry/internal/core/domain"
	"github.com/setlocale/registry/internal/core/ports"
)

const (
	EntityApp   = "app"
	EntityToken = "token"

	ActionCreate     = "create"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionIssue      = "issue"
	ActionRevoke     = "revoke"
)

// AuditService records mutations of the registry. Audit writes are
// best-effort: a failed insert is logged and never vetoes the operation
// that triggered it.
type AuditService struct {
	repo   ports.AuditRepository
	users  ports.UserDirectory
	logger *log.Logger
}

func NewAuditService(repo ports.AuditRepository, users ports.UserDirectory, logger *log.Logger) *AuditService {
	return &AuditService{repo: repo, users: users, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, event domain.AuditEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.repo.Record(ctx, event); err != nil {
		s.logger.Error("record audit event",
			"entity", event.EntityType, "id", event.EntityID,
			"action", event.Action, "err", err)
	}
}

// ListForActor returns the audit trail. Only administrators may read it.
func (s *AuditService) ListForActor(ctx context.Context, actorID string, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.repo.List(ctx, filter)
}
