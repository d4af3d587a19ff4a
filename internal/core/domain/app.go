package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidApp    = errors.New("invalid app")
	ErrInvalidToken  = errors.New("invalid token")
	ErrDuplicateName = errors.New("duplicate app name")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
)

// App is a registered external consumer of the localization API. Apps are
// never hard-deleted; deactivation flips IsActive and cascades to every
// owned token.
type App struct {
	ID          int64
	Name        string
	URL         string
	Description string
	UserEmail   string
	CreatedBy   string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tokens      []Token
}

// Token is an opaque credential scoped to exactly one App. IsAppActive
// mirrors the owning App's IsActive flag and is only changed by the status
// cascade. Revocation is a soft delete: the row is kept, IsAppActive is
// left alone.
type Token struct {
	Key         string
	AppID       int64
	CreatedBy   string
	UsageCount  int64
	IsAppActive bool
	IsDeleted   bool
	DeletedAt   *time.Time
	DeletedBy   string
	CreatedAt   time.Time
}

// NewApp is the input for app registration.
type NewApp struct {
	Name        string
	URL         string
	Description string
	UserEmail   string
	CreatedBy   string
}

func (a NewApp) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidApp
	}
	if strings.TrimSpace(a.UserEmail) == "" {
		return ErrInvalidApp
	}
	if strings.TrimSpace(a.CreatedBy) == "" {
		return ErrInvalidApp
	}
	return nil
}

// NewToken is the input for explicit token issuance. The key is generated
// by the caller, not by the token manager.
type NewToken struct {
	Key       string
	AppID     int64
	CreatedBy string
}

func (t NewToken) Validate() error {
	if strings.TrimSpace(t.Key) == "" {
		return ErrInvalidToken
	}
	if t.AppID < 1 {
		return ErrInvalidToken
	}
	return nil
}
