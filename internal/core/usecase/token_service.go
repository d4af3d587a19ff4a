package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/setlocale/registry/internal/core/domain"
	"github.com/setlocale/registry/internal/core/ports"
)

// TokenService owns tokens issued after app registration: issuance,
// revocation and the validity check downstream services call on every
// localization request.
type TokenService struct {
	tokens ports.TokenRepository
	apps   ports.AppRepository
	audit  *AuditService
}

func NewTokenService(tokens ports.TokenRepository, apps ports.AppRepository, audit *AuditService) *TokenService {
	return &TokenService{tokens: tokens, apps: apps, audit: audit}
}

// Create issues a token for an existing app. The token starts active no
// matter what state the app is in; issuance does not consult App.IsActive.
func (s *TokenService) Create(ctx context.Context, model domain.NewToken) (bool, error) {
	if err := model.Validate(); err != nil {
		return false, err
	}

	if _, err := s.apps.FindByID(ctx, model.AppID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	err := s.tokens.Create(ctx, domain.Token{
		Key:         model.Key,
		AppID:       model.AppID,
		CreatedBy:   model.CreatedBy,
		UsageCount:  0,
		IsAppActive: true,
	})
	if err != nil {
		return false, err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		EntityType: EntityToken,
		EntityID:   model.Key,
		Action:     ActionIssue,
		Actor:      model.CreatedBy,
	})
	return true, nil
}

// Revoke soft-deletes the token: the row is kept with the deletion markers
// set, and IsAppActive is untouched. Revocation is administrative
// record-keeping; cutting live access requires deactivating the app.
func (s *TokenService) Revoke(ctx context.Context, key, revokedBy string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}

	ok, err := s.tokens.MarkDeleted(ctx, key, revokedBy, time.Now().UTC())
	if err != nil || !ok {
		return ok, err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		EntityType: EntityToken,
		EntityID:   key,
		Action:     ActionRevoke,
		Actor:      revokedBy,
	})
	return true, nil
}

// IsValid reports whether a token with the given key exists and its app is
// active. It deliberately ignores the soft-delete flag; see Revoke.
func (s *TokenService) IsValid(ctx context.Context, key string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}

	token, err := s.tokens.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return token.IsAppActive, nil
}
