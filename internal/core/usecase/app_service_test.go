package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/setlocale/registry/internal/core/domain"
)

type stubApps struct {
	createFn        func(ctx context.Context, app domain.App, bootstrap domain.Token) (int64, error)
	findByIDFn      func(ctx context.Context, id int64) (domain.App, error)
	findByNameFn    func(ctx context.Context, name string) (domain.App, error)
	findByURLNameFn func(ctx context.Context, tag string) (domain.App, error)
	findByCreatorFn func(ctx context.Context, userID string) ([]domain.App, error)
	countFn         func(ctx context.Context) (int64, error)
	listFn          func(ctx context.Context, offset, limit int) ([]domain.App, error)
	setStatusFn     func(ctx context.Context, appID int64, active bool) (bool, error)
}

func (s *stubApps) Create(ctx context.Context, app domain.App, bootstrap domain.Token) (int64, error) {
	if s.createFn != nil {
		return s.createFn(ctx, app, bootstrap)
	}
	return 1, nil
}

func (s *stubApps) FindByID(ctx context.Context, id int64) (domain.App, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return domain.App{}, domain.ErrNotFound
}

func (s *stubApps) FindByName(ctx context.Context, name string) (domain.App, error) {
	if s.findByNameFn != nil {
		return s.findByNameFn(ctx, name)
	}
	return domain.App{}, domain.ErrNotFound
}

func (s *stubApps) FindByURLName(ctx context.Context, tag string) (domain.App, error) {
	if s.findByURLNameFn != nil {
		return s.findByURLNameFn(ctx, tag)
	}
	return domain.App{}, domain.ErrNotFound
}

func (s *stubApps) FindByCreator(ctx context.Context, userID string) ([]domain.App, error) {
	if s.findByCreatorFn != nil {
		return s.findByCreatorFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubApps) Count(ctx context.Context) (int64, error) {
	if s.countFn != nil {
		return s.countFn(ctx)
	}
	return 0, nil
}

func (s *stubApps) List(ctx context.Context, offset, limit int) ([]domain.App, error) {
	if s.listFn != nil {
		return s.listFn(ctx, offset, limit)
	}
	return nil, nil
}

func (s *stubApps) SetStatus(ctx context.Context, appID int64, active bool) (bool, error) {
	if s.setStatusFn != nil {
		return s.setStatusFn(ctx, appID, active)
	}
	return true, nil
}

type stubTokens struct {
	createFn      func(ctx context.Context, token domain.Token) error
	findByKeyFn   func(ctx context.Context, key string) (domain.Token, error)
	markDeletedFn func(ctx context.Context, key, deletedBy string, at time.Time) (bool, error)
}

func (s *stubTokens) Create(ctx context.Context, token domain.Token) error {
	if s.createFn != nil {
		return s.createFn(ctx, token)
	}
	return nil
}

func (s *stubTokens) FindByKey(ctx context.Context, key string) (domain.Token, error) {
	if s.findByKeyFn != nil {
		return s.findByKeyFn(ctx, key)
	}
	return domain.Token{}, domain.ErrNotFound
}

func (s *stubTokens) MarkDeleted(ctx context.Context, key, deletedBy string, at time.Time) (bool, error) {
	if s.markDeletedFn != nil {
		return s.markDeletedFn(ctx, key, deletedBy, at)
	}
	return true, nil
}

type stubUsers struct {
	findByIDFn func(ctx context.Context, id string) (domain.User, error)
}

func (s *stubUsers) FindByID(ctx context.Context, id string) (domain.User, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return domain.User{}, domain.ErrNotFound
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (s *stubAudit) Record(_ context.Context, event domain.AuditEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubAudit) List(_ context.Context, _ domain.AuditFilter) ([]domain.AuditEvent, error) {
	return s.events, nil
}

func newTestAudit(users *stubUsers) (*AuditService, *stubAudit) {
	repo := &stubAudit{}
	if users == nil {
		users = &stubUsers{}
	}
	return NewAuditService(repo, users, log.New(io.Discard)), repo
}

func validNewApp() domain.NewApp {
	return domain.NewApp{
		Name:      "Demo",
		URL:       "https://demo.example.com",
		UserEmail: "owner@example.com",
		CreatedBy: "user-1",
	}
}

func TestAppServiceCreateRejectsInvalidModel(t *testing.T) {
	audit, _ := newTestAudit(nil)
	svc := NewAppService(&stubApps{}, &stubUsers{}, audit)

	model := validNewApp()
	model.Name = "  "
	if _, err := svc.Create(context.Background(), model); !errors.Is(err, domain.ErrInvalidApp) {
		t.Fatalf("expected invalid app, got %v", err)
	}
}

func TestAppServiceCreateRejectsDuplicateName(t *testing.T) {
	audit, _ := newTestAudit(nil)
	apps := &stubApps{
		findByNameFn: func(_ context.Context, name string) (domain.App, error) {
			return domain.App{ID: 7, Name: name}, nil
		},
	}
	svc := NewAppService(apps, &stubUsers{}, audit)

	if _, err := svc.Create(context.Background(), validNewApp()); !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected duplicate name, got %v", err)
	}
}

func TestAppServiceCreatePersistsBootstrapToken(t *testing.T) {
	var captured domain.Token
	apps := &stubApps{
		createFn: func(_ context.Context, app domain.App, bootstrap domain.Token) (int64, error) {
			if !app.IsActive {
				t.Fatal("new app must start active")
			}
			captured = bootstrap
			return 42, nil
		},
	}
	audit, auditRepo := newTestAudit(nil)
	svc := NewAppService(apps, &stubUsers{}, audit)

	id, err := svc.Create(context.Background(), validNewApp())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if len(captured.Key) != KeyLength {
		t.Fatalf("expected %d-char bootstrap key, got %q", KeyLength, captured.Key)
	}
	if !captured.IsAppActive || captured.UsageCount != 0 {
		t.Fatalf("unexpected bootstrap token: %+v", captured)
	}
	if captured.CreatedBy != "user-1" {
		t.Fatalf("bootstrap token creator = %q", captured.CreatedBy)
	}
	if len(auditRepo.events) != 1 || auditRepo.events[0].Action != ActionCreate {
		t.Fatalf("expected one create audit event, got %+v", auditRepo.events)
	}
}

func TestAppServiceGetShortCircuitsOnBadID(t *testing.T) {
	audit, _ := newTestAudit(nil)
	apps := &stubApps{
		findByIDFn: func(_ context.Context, _ int64) (domain.App, error) {
			t.Fatal("repository must not be queried for id 0")
			return domain.App{}, nil
		},
	}
	svc := NewAppService(apps, &stubUsers{}, audit)

	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAppServiceGetByNameEmptyShortCircuits(t *testing.T) {
	audit, _ := newTestAudit(nil)
	svc := NewAppService(&stubApps{
		findByNameFn: func(_ context.Context, _ string) (domain.App, error) {
			t.Fatal("repository must not be queried for empty name")
			return domain.App{}, nil
		},
	}, &stubUsers{}, audit)

	if _, err := svc.GetByName(context.Background(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAppServiceGetAppsWindowsThePage(t *testing.T) {
	audit, _ := newTestAudit(nil)
	var gotOffset, gotLimit int
	apps := &stubApps{
		countFn: func(_ context.Context) (int64, error) { return 25, nil },
		listFn: func(_ context.Context, offset, limit int) ([]domain.App, error) {
			gotOffset, gotLimit = offset, limit
			return make([]domain.App, 5), nil
		},
	}
	svc := NewAppService(apps, &stubUsers{}, audit)

	page, err := svc.GetApps(context.Background(), 3)
	if err != nil {
		t.Fatalf("get apps: %v", err)
	}
	if gotOffset != 20 || gotLimit != domain.PageSize {
		t.Fatalf("expected window (20, %d), got (%d, %d)", domain.PageSize, gotOffset, gotLimit)
	}
	if page.PageNumber != 3 || page.TotalCount != 25 || page.TotalPageCount != 3 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
}

func TestAppServiceGetAppsResetsOutOfRangePage(t *testing.T) {
	audit, _ := newTestAudit(nil)
	var gotOffset int
	apps := &stubApps{
		countFn: func(_ context.Context) (int64, error) { return 25, nil },
		listFn: func(_ context.Context, offset, _ int) ([]domain.App, error) {
			gotOffset = offset
			return make([]domain.App, domain.PageSize), nil
		},
	}
	svc := NewAppService(apps, &stubUsers{}, audit)

	for _, requested := range []int{0, 99} {
		page, err := svc.GetApps(context.Background(), requested)
		if err != nil {
			t.Fatalf("get apps page %d: %v", requested, err)
		}
		if page.PageNumber != 1 || gotOffset != 0 {
			t.Fatalf("page %d: expected reset to page 1 offset 0, got page %d offset %d",
				requested, page.PageNumber, gotOffset)
		}
	}
}

func TestAppServiceDeactivateRequiresOwnerOrAdmin(t *testing.T) {
	audit, _ := newTestAudit(nil)
	apps := &stubApps{
		findByIDFn: func(_ context.Context, id int64) (domain.App, error) {
			return domain.App{ID: id, CreatedBy: "owner", IsActive: true}, nil
		},
		setStatusFn: func(_ context.Context, _ int64, _ bool) (bool, error) {
			t.Fatal("status must not change for unauthorized actor")
			return false, nil
		},
	}
	users := &stubUsers{
		findByIDFn: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, RoleID: 2}, nil
		},
	}
	svc := NewAppService(apps, users, audit)

	ok, err := svc.Deactivate(context.Background(), 5, "stranger")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if ok {
		t.Fatal("expected deactivate to be refused")
	}
}

func TestAppServiceDeactivateByOwnerCascades(t *testing.T) {
	var gotActive *bool
	apps := &stubApps{
		findByIDFn: func(_ context.Context, id int64) (domain.App, error) {
			return domain.App{ID: id, CreatedBy: "owner", IsActive: true}, nil
		},
		setStatusFn: func(_ context.Context, _ int64, active bool) (bool, error) {
			gotActive = &active
			return true, nil
		},
	}
	users := &stubUsers{
		findByIDFn: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, RoleID: 2}, nil
		},
	}
	audit, auditRepo := newTestAudit(nil)
	svc := NewAppService(apps, users, audit)

	ok, err := svc.Deactivate(context.Background(), 5, "owner")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if !ok {
		t.Fatal("expected deactivate to succeed")
	}
	if gotActive == nil || *gotActive {
		t.Fatal("expected cascade with active=false")
	}
	if len(auditRepo.events) != 1 || auditRepo.events[0].Action != ActionDeactivate {
		t.Fatalf("expected deactivate audit event, got %+v", auditRepo.events)
	}
}

func TestAppServiceActivateByAdmin(t *testing.T) {
	audit, _ := newTestAudit(nil)
	var gotActive *bool
	apps := &stubApps{
		findByIDFn: func(_ context.Context, id int64) (domain.App, error) {
			return domain.App{ID: id, CreatedBy: "owner", IsActive: false}, nil
		},
		setStatusFn: func(_ context.Context, _ int64, active bool) (bool, error) {
			gotActive = &active
			return true, nil
		},
	}
	users := &stubUsers{
		findByIDFn: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, RoleID: domain.RoleAdmin}, nil
		},
	}
	svc := NewAppService(apps, users, audit)

	ok, err := svc.Activate(context.Background(), 5, "admin")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !ok {
		t.Fatal("expected activate to succeed")
	}
	if gotActive == nil || !*gotActive {
		t.Fatal("expected cascade with active=true")
	}
}

func TestAppServiceStatusChangeUnknownActor(t *testing.T) {
	audit, _ := newTestAudit(nil)
	svc := NewAppService(&stubApps{}, &stubUsers{}, audit)

	ok, err := svc.Deactivate(context.Background(), 5, "ghost")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if ok {
		t.Fatal("expected refusal for unknown actor")
	}
}

func TestAppServiceStatusChangeBlankInput(t *testing.T) {
	audit, _ := newTestAudit(nil)
	svc := NewAppService(&stubApps{}, &stubUsers{}, audit)

	if ok, err := svc.Deactivate(context.Background(), 0, "owner"); ok || err != nil {
		t.Fatalf("expected (false, nil) for id 0, got (%v, %v)", ok, err)
	}
	if ok, err := svc.Deactivate(context.Background(), 5, "  "); ok || err != nil {
		t.Fatalf("expected (false, nil) for blank actor, got (%v, %v)", ok, err)
	}
}
