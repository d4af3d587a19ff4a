package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/setlocale/registry/internal/adapters/sqlite/gormsqlite"
	"github.com/setlocale/registry/internal/core/domain"
)

type AuditRepository struct {
	db *gormsqlite.DB
}

func NewAuditRepository(db *gormsqlite.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	model := auditModel{
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Action:     event.Action,
		Actor:      event.Actor,
		At:         event.At,
	}
	if model.At.IsZero() {
		model.At = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	var models []auditModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&auditModel{})
		if filter.EntityType != "" {
			query = query.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			query = query.Where("entity_id = ?", filter.EntityID)
		}
		return query.Order("id DESC").Limit(filter.Limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		events = append(events, domain.AuditEvent{
			EntityType: model.EntityType,
			EntityID:   model.EntityID,
			Action:     model.Action,
			Actor:      model.Actor,
			At:         model.At,
		})
	}
	return events, nil
}
