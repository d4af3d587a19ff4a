package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/setlocale/registry/internal/core/domain"
	"github.com/setlocale/registry/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	actorCtxKey     ctxKey = "actor"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	appService   *usecase.AppService
	tokenService *usecase.TokenService
	auditService *usecase.AuditService
	logger       *log.Logger
}

func NewHandler(appService *usecase.AppService, tokenService *usecase.TokenService, auditService *usecase.AuditService, logger *log.Logger) *Handler {
	return &Handler{
		appService:   appService,
		tokenService: tokenService,
		auditService: auditService,
		logger:       logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)

	// Validity is the one call downstream services make on every request;
	// it needs no caller identity.
	r.Get("/v1/tokens/{key}/valid", h.tokenValid)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireActor)
		pr.Post("/v1/apps", h.createApp)
		pr.Get("/v1/apps", h.listApps)
		pr.Get("/v1/apps/{id}", h.getApp)
		pr.Get("/v1/apps/by-name/{name}", h.getAppByName)
		pr.Get("/v1/apps/by-url/{tag}", h.getAppByURLName)
		pr.Get("/v1/users/{id}/apps", h.listUserApps)
		pr.Post("/v1/apps/{id}/activate", h.activateApp)
		pr.Post("/v1/apps/{id}/deactivate", h.deactivateApp)
		pr.Post("/v1/apps/{id}/tokens", h.issueToken)
		pr.Delete("/v1/tokens/{key}", h.revokeToken)
		pr.Get("/v1/audit", h.listAudit)
	})

	return r
}

type createAppRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type tokenResponse struct {
	Key         string `json:"key"`
	AppID       int64  `json:"app_id"`
	CreatedBy   string `json:"created_by"`
	UsageCount  int64  `json:"usage_count"`
	IsAppActive bool   `json:"is_app_active"`
	IsDeleted   bool   `json:"is_deleted"`
	DeletedAt   string `json:"deleted_at,omitempty"`
	DeletedBy   string `json:"deleted_by,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type appResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	UserEmail   string          `json:"user_email"`
	CreatedBy   string          `json:"created_by"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
	Tokens      []tokenResponse `json:"tokens"`
}

type pagedAppsResponse struct {
	PageNumber     int           `json:"page_number"`
	PageSize       int           `json:"page_size"`
	TotalCount     int64         `json:"total_count"`
	TotalPageCount int           `json:"total_page_count"`
	Items          []appResponse `json:"items"`
}

type auditEventResponse struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	At         string `json:"at"`
}

func (h *Handler) createApp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if msgs := validateBody(createAppSchema, body); msgs != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "details": msgs})
		return
	}

	var req createAppRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	id, err := h.appService.Create(r.Context(), domain.NewApp{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		UserEmail:   req.Email,
		CreatedBy:   actorFromContext(r.Context()),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	app, err := h.appService.Get(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAppResponse(app))
}

func (h *Handler) listApps(w http.ResponseWriter, r *http.Request) {
	pageNumber := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "page must be integer")
			return
		}
		pageNumber = parsed
	}

	page, err := h.appService.GetApps(r.Context(), pageNumber)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	items := make([]appResponse, 0, len(page.Items))
	for _, app := range page.Items {
		items = append(items, toAppResponse(app))
	}
	h.writeJSON(w, http.StatusOK, pagedAppsResponse{
		PageNumber:     page.PageNumber,
		PageSize:       page.PageSize,
		TotalCount:     page.TotalCount,
		TotalPageCount: page.TotalPageCount,
		Items:          items,
	})
}

func (h *Handler) getApp(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	app, err := h.appService.Get(r.Context(), id)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAppResponse(app))
}

func (h *Handler) getAppByName(w http.ResponseWriter, r *http.Request) {
	app, err := h.appService.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAppResponse(app))
}

func (h *Handler) getAppByURLName(w http.ResponseWriter, r *http.Request) {
	app, err := h.appService.GetByURLName(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAppResponse(app))
}

func (h *Handler) listUserApps(w http.ResponseWriter, r *http.Request) {
	apps, err := h.appService.GetByUserID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	items := make([]appResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, toAppResponse(app))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) activateApp(w http.ResponseWriter, r *http.Request) {
	h.changeAppStatus(w, r, h.appService.Activate)
}

func (h *Handler) deactivateApp(w http.ResponseWriter, r *http.Request) {
	h.changeAppStatus(w, r, h.appService.Deactivate)
}

func (h *Handler) changeAppStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, string) (bool, error)) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	changed, err := op(r.Context(), id, actorFromContext(r.Context()))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": changed})
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	key := usecase.NewTokenKey()
	created, err := h.tokenService.Create(r.Context(), domain.NewToken{
		Key:       key,
		AppID:     id,
		CreatedBy: actorFromContext(r.Context()),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	if !created {
		h.writeError(w, http.StatusNotFound, "app not found")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"key": key, "app_id": id})
}

func (h *Handler) revokeToken(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.tokenService.Revoke(r.Context(), chi.URLParam(r, "key"), actorFromContext(r.Context()))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": revoked})
}

func (h *Handler) tokenValid(w http.ResponseWriter, r *http.Request) {
	valid, err := h.tokenService.IsValid(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be integer")
			return
		}
		limit = parsed
	}

	events, err := h.auditService.ListForActor(r.Context(), actorFromContext(r.Context()), domain.AuditFilter{
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		Limit:      limit,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	items := make([]auditEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, auditEventResponse{
			EntityType: event.EntityType,
			EntityID:   event.EntityID,
			Action:     event.Action,
			Actor:      event.Actor,
			At:         event.At.UTC().Format(timeFormat),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireActor reads the caller identity the upstream session layer
// resolved. The registry trusts it; it only checks that one was supplied.
func (h *Handler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if actor == "" {
			h.writeError(w, http.StatusUnauthorized, "missing caller identity")
			return
		}
		ctx := context.WithValue(r.Context(), actorCtxKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be integer")
		return 0, false
	}
	return id, true
}

func toAppResponse(app domain.App) appResponse {
	tokens := make([]tokenResponse, 0, len(app.Tokens))
	for _, token := range app.Tokens {
		tokens = append(tokens, toTokenResponse(token))
	}
	return appResponse{
		ID:          app.ID,
		Name:        app.Name,
		URL:         app.URL,
		Description: app.Description,
		UserEmail:   app.UserEmail,
		CreatedBy:   app.CreatedBy,
		IsActive:    app.IsActive,
		CreatedAt:   app.CreatedAt.UTC().Format(timeFormat),
		Tokens:      tokens,
	}
}

func toTokenResponse(token domain.Token) tokenResponse {
	resp := tokenResponse{
		Key:         token.Key,
		AppID:       token.AppID,
		CreatedBy:   token.CreatedBy,
		UsageCount:  token.UsageCount,
		IsAppActive: token.IsAppActive,
		IsDeleted:   token.IsDeleted,
		DeletedBy:   token.DeletedBy,
		CreatedAt:   token.CreatedAt.UTC().Format(timeFormat),
	}
	if token.DeletedAt != nil {
		resp.DeletedAt = token.DeletedAt.UTC().Format(timeFormat)
	}
	return resp
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("encode json response", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Error("write response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"error": message})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidApp), errors.Is(err, domain.ErrInvalidToken):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateName):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("request failed", "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func actorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorCtxKey).(string)
	return actor
}
