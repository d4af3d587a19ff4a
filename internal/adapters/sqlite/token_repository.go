package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/setlocale/registry/internal/adapters/sqlite/gormsqlite"
	"github.com/setlocale/registry/internal/core/domain"
)

type TokenRepository struct {
	db *gormsqlite.DB
}

func NewTokenRepository(db *gormsqlite.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token domain.Token) error {
	model := tokenModel{
		Key:         token.Key,
		AppID:       token.AppID,
		CreatedBy:   token.CreatedBy,
		UsageCount:  token.UsageCount,
		IsAppActive: token.IsAppActive,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByKey(ctx context.Context, key string) (domain.Token, error) {
	var model tokenModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("key = ?", key).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Token{}, domain.ErrNotFound
		}
		return domain.Token{}, fmt.Errorf("find token: %w", err)
	}
	return tokenToDomain(model), nil
}

// MarkDeleted sets the soft-delete markers and nothing else: the row stays,
// is_app_active stays.
func (r *TokenRepository) MarkDeleted(ctx context.Context, key, deletedBy string, at time.Time) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&tokenModel{}).Where("key = ?", key).Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": at,
			"deleted_by": deletedBy,
		})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("mark token deleted: %w", err)
	}
	return affected > 0, nil
}
