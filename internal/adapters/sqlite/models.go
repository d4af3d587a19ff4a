package sqlite

import (
	"time"

	"github.com/setlocale/registry/internal/core/domain"
)

type appModel struct {
	ID          int64        `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string       `gorm:"column:name;not null;uniqueIndex"`
	URL         string       `gorm:"column:url"`
	Description string       `gorm:"column:description;not null"`
	UserEmail   string       `gorm:"column:user_email;not null"`
	CreatedBy   string       `gorm:"column:created_by;not null"`
	IsActive    bool         `gorm:"column:is_active;not null"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;not null"`
	Tokens      []tokenModel `gorm:"foreignKey:AppID;references:ID"`
}

func (appModel) TableName() string {
	return "apps"
}

type tokenModel struct {
	Key         string     `gorm:"column:key;primaryKey"`
	AppID       int64      `gorm:"column:app_id;not null;index"`
	CreatedBy   string     `gorm:"column:created_by;not null"`
	UsageCount  int64      `gorm:"column:usage_count;not null"`
	IsAppActive bool       `gorm:"column:is_app_active;not null"`
	IsDeleted   bool       `gorm:"column:is_deleted;not null"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
	DeletedBy   string     `gorm:"column:deleted_by"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
}

func (tokenModel) TableName() string {
	return "tokens"
}

type userModel struct {
	ID     string `gorm:"column:id;primaryKey"`
	Email  string `gorm:"column:email;not null"`
	RoleID int    `gorm:"column:role_id;not null"`
}

func (userModel) TableName() string {
	return "users"
}

type auditModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntityType string    `gorm:"column:entity_type;not null"`
	EntityID   string    `gorm:"column:entity_id;not null"`
	Action     string    `gorm:"column:action;not null"`
	Actor      string    `gorm:"column:actor;not null"`
	At         time.Time `gorm:"column:at;not null"`
}

func (auditModel) TableName() string {
	return "audit_logs"
}

func appToDomain(model appModel) domain.App {
	tokens := make([]domain.Token, 0, len(model.Tokens))
	for _, token := range model.Tokens {
		tokens = append(tokens, tokenToDomain(token))
	}
	return domain.App{
		ID:          model.ID,
		Name:        model.Name,
		URL:         model.URL,
		Description: model.Description,
		UserEmail:   model.UserEmail,
		CreatedBy:   model.CreatedBy,
		IsActive:    model.IsActive,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		Tokens:      tokens,
	}
}

func tokenToDomain(model tokenModel) domain.Token {
	return domain.Token{
		Key:         model.Key,
		AppID:       model.AppID,
		CreatedBy:   model.CreatedBy,
		UsageCount:  model.UsageCount,
		IsAppActive: model.IsAppActive,
		IsDeleted:   model.IsDeleted,
		DeletedAt:   model.DeletedAt,
		DeletedBy:   model.DeletedBy,
		CreatedAt:   model.CreatedAt,
	}
}
