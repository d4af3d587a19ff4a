package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/setlocale/registry/internal/adapters/httpapi"
	sqliteadapter "github.com/setlocale/registry/internal/adapters/sqlite"
	"github.com/setlocale/registry/internal/adapters/sqlite/gormsqlite"
	"github.com/setlocale/registry/internal/core/domain"
	"github.com/setlocale/registry/internal/core/usecase"
	"github.com/setlocale/registry/migrations"
)

type Config struct {
	Addr string
	// DBPath is the SQLite file shared with the identity system that owns
	// the users table.
	DBPath string
	// BootstrapAdminID/Email seed an administrator on startup so a fresh
	// database has at least one user who can manage apps.
	BootstrapAdminID    string
	BootstrapAdminEmail string
}

// NewServer wires the registry together and returns the HTTP server plus a
// closer for the resources it holds.
func NewServer(ctx context.Context, cfg Config, logger *log.Logger) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	appRepo := sqliteadapter.NewAppRepository(db)
	tokenRepo := sqliteadapter.NewTokenRepository(db)
	userDir := sqliteadapter.NewUserDirectory(db)
	auditRepo := sqliteadapter.NewAuditRepository(db)

	auditService := usecase.NewAuditService(auditRepo, userDir, logger)
	appService := usecase.NewAppService(appRepo, userDir, auditService)
	tokenService := usecase.NewTokenService(tokenRepo, appRepo, auditService)

	if cfg.BootstrapAdminID != "" {
		bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, 5*time.Second)
		err := userDir.Upsert(bootstrapCtx, domain.User{
			ID:     cfg.BootstrapAdminID,
			Email:  cfg.BootstrapAdminEmail,
			RoleID: domain.RoleAdmin,
		})
		bootstrapCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap admin user: %w", err)
		}
	}

	handler := httpapi.NewHandler(appService, tokenService, auditService, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, db, nil
}
