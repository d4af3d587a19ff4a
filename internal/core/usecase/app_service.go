package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/setlocale/registry/internal/core/domain"
	"github.com/setlocale/registry/internal/core/ports"
)

// AppService owns the App lifecycle: registration with a bootstrap token,
// lookups, paginated listing and the cascading activate/deactivate.
type AppService struct {
	apps  ports.AppRepository
	users ports.UserDirectory
	audit *AuditService
}

func NewAppService(apps ports.AppRepository, users ports.UserDirectory, audit *AuditService) *AppService {
	return &AppService{apps: apps, users: users, audit: audit}
}

// Create registers a new app and its bootstrap token in one transaction.
// The name pre-check is advisory only; the unique index on apps.name is the
// final authority, and a racing duplicate surfaces as the same
// domain.ErrDuplicateName.
func (s *AppService) Create(ctx context.Context, model domain.NewApp) (int64, error) {
	if err := model.Validate(); err != nil {
		return 0, err
	}

	_, err := s.apps.FindByName(ctx, model.Name)
	if err == nil {
		return 0, domain.ErrDuplicateName
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	app := domain.App{
		Name:        model.Name,
		URL:         model.URL,
		Description: model.Description,
		UserEmail:   model.UserEmail,
		CreatedBy:   model.CreatedBy,
		IsActive:    true,
	}
	bootstrap := domain.Token{
		Key:         NewTokenKey(),
		CreatedBy:   model.CreatedBy,
		UsageCount:  0,
		IsAppActive: true,
	}

	id, err := s.apps.Create(ctx, app, bootstrap)
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, domain.AuditEvent{
		EntityType: EntityApp,
		EntityID:   strconv.FormatInt(id, 10),
		Action:     ActionCreate,
		Actor:      model.CreatedBy,
	})
	return id, nil
}

// Get returns the app with its tokens. Non-positive ids short-circuit to
// not-found without touching storage.
func (s *AppService) Get(ctx context.Context, appID int64) (domain.App, error) {
	if appID < 1 {
		return domain.App{}, domain.ErrNotFound
	}
	return s.apps.FindByID(ctx, appID)
}

// GetByName looks an app up by exact name match.
func (s *AppService) GetByName(ctx context.Context, name string) (domain.App, error) {
	if name == "" {
		return domain.App{}, domain.ErrNotFound
	}
	return s.apps.FindByName(ctx, name)
}

// GetByURLName looks an app up by name, ignoring case. This is the lookup
// the public app pages use, where the name arrives lowercased in the URL.
func (s *AppService) GetByURLName(ctx context.Context, tag string) (domain.App, error) {
	if tag == "" {
		return domain.App{}, domain.ErrNotFound
	}
	return s.apps.FindByURLName(ctx, tag)
}

// GetByUserID returns every app the given user created.
func (s *AppService) GetByUserID(ctx context.Context, userID string) ([]domain.App, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return s.apps.FindByCreator(ctx, userID)
}

// GetApps returns one page of all apps, newest first. Out-of-range page
// numbers resolve to page 1.
func (s *AppService) GetApps(ctx context.Context, pageNumber int) (domain.PagedList[domain.App], error) {
	total, err := s.apps.Count(ctx)
	if err != nil {
		return domain.PagedList[domain.App]{}, err
	}

	page, offset, totalPages := domain.PageWindow(total, pageNumber, domain.PageSize)
	items, err := s.apps.List(ctx, offset, domain.PageSize)
	if err != nil {
		return domain.PagedList[domain.App]{}, err
	}
	return domain.NewPagedList(page, domain.PageSize, total, totalPages, items), nil
}

// Activate turns the app and all of its tokens on.
func (s *AppService) Activate(ctx context.Context, appID int64, actorID string) (bool, error) {
	return s.setStatus(ctx, appID, actorID, true)
}

// Deactivate turns the app off and cascades to all of its tokens, cutting
// access for every credential the app ever issued.
func (s *AppService) Deactivate(ctx context.Context, appID int64, actorID string) (bool, error) {
	return s.setStatus(ctx, appID, actorID, false)
}

// setStatus authorizes the actor (creator or administrator) and applies the
// flag to the app and every owned token in one transaction. Missing app,
// missing actor or insufficient rights are all the same quiet "no".
func (s *AppService) setStatus(ctx context.Context, appID int64, actorID string, active bool) (bool, error) {
	if appID < 1 || strings.TrimSpace(actorID) == "" {
		return false, nil
	}

	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if app.CreatedBy != actorID && !user.IsAdmin() {
		return false, nil
	}

	ok, err := s.apps.SetStatus(ctx, appID, active)
	if err != nil || !ok {
		return ok, err
	}

	action := ActionDeactivate
	if active {
		action = ActionActivate
	}
	s.audit.Record(ctx, domain.AuditEvent{
		EntityType: EntityApp,
		EntityID:   strconv.FormatInt(appID, 10),
		Action:     action,
		Actor:      actorID,
	})
	return true, nil
}
