package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/setlocale/registry/internal/adapters/sqlite/gormsqlite"
	"github.com/setlocale/registry/internal/core/domain"
)

// UserDirectory reads the users table the identity system maintains. The
// registry treats it as read-only; Upsert exists solely for startup
// bootstrap and tests.
type UserDirectory struct {
	db *gormsqlite.DB
}

func NewUserDirectory(db *gormsqlite.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (r *UserDirectory) FindByID(ctx context.Context, id string) (domain.User, error) {
	var model userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return domain.User{ID: model.ID, Email: model.Email, RoleID: model.RoleID}, nil
}

func (r *UserDirectory) Upsert(ctx context.Context, user domain.User) error {
	model := userModel{ID: user.ID, Email: user.Email, RoleID: user.RoleID}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "role_id"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
