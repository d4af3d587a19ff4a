package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/setlocale/registry/internal/adapters/sqlite/gormsqlite"
	"github.com/setlocale/registry/internal/core/domain"
)

type AppRepository struct {
	db *gormsqlite.DB
}

func NewAppRepository(db *gormsqlite.DB) *AppRepository {
	return &AppRepository{db: db}
}

// Create inserts the app and its bootstrap token in one transaction. The
// unique index on apps.name is the final authority on name collisions; a
// constraint violation comes back as domain.ErrDuplicateName, same as the
// service's advisory pre-check.
func (r *AppRepository) Create(ctx context.Context, app domain.App, bootstrap domain.Token) (int64, error) {
	now := time.Now().UTC()
	model := appModel{
		Name:        app.Name,
		URL:         app.URL,
		Description: app.Description,
		UserEmail:   app.UserEmail,
		CreatedBy:   app.CreatedBy,
		IsActive:    app.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		token := tokenModel{
			Key:         bootstrap.Key,
			AppID:       model.ID,
			CreatedBy:   bootstrap.CreatedBy,
			UsageCount:  bootstrap.UsageCount,
			IsAppActive: bootstrap.IsAppActive,
			CreatedAt:   now,
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateName
		}
		return 0, fmt.Errorf("create app: %w", err)
	}
	return model.ID, nil
}

func (r *AppRepository) FindByID(ctx context.Context, id int64) (domain.App, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *AppRepository) FindByName(ctx context.Context, name string) (domain.App, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *AppRepository) FindByURLName(ctx context.Context, tag string) (domain.App, error) {
	return r.findOne(ctx, "name = ? COLLATE NOCASE", tag)
}

func (r *AppRepository) findOne(ctx context.Context, query string, arg any) (domain.App, error) {
	var model appModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Preload("Tokens", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, key ASC")
		}).Where(query, arg).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.App{}, domain.ErrNotFound
		}
		return domain.App{}, fmt.Errorf("find app: %w", err)
	}
	return appToDomain(model), nil
}

func (r *AppRepository) FindByCreator(ctx context.Context, userID string) ([]domain.App, error) {
	var models []appModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("created_by = ?", userID).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("find apps by creator: %w", err)
	}

	apps := make([]domain.App, 0, len(models))
	for _, model := range models {
		apps = append(apps, appToDomain(model))
	}
	return apps, nil
}

func (r *AppRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&appModel{}).Count(&count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("count apps: %w", err)
	}
	return count, nil
}

func (r *AppRepository) List(ctx context.Context, offset, limit int) ([]domain.App, error) {
	var models []appModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("id DESC").Offset(offset).Limit(limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}

	apps := make([]domain.App, 0, len(models))
	for _, model := range models {
		apps = append(apps, appToDomain(model))
	}
	return apps, nil
}

// SetStatus flips the app flag and every owned token's mirror in one
// transaction, so a reader never observes a half-applied cascade.
func (r *AppRepository) SetStatus(ctx context.Context, appID int64, active bool) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&appModel{}).Where("id = ?", appID).Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&tokenModel{}).Where("app_id = ?", appID).
			Update("is_app_active", active).Error
	})
	if err != nil {
		return false, fmt.Errorf("set app status: %w", err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
