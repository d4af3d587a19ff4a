package ports

import (
	"context"
	"time"

	"github.com/setlocale/registry/internal/core/domain"
)

// AppRepository is the storage port for App aggregates. Create and SetStatus
// are transactional: the app row and its token rows change together or not
// at all.
type AppRepository interface {
	// Create persists the app together with its bootstrap token in a single
	// transaction and returns the assigned id. A name collision (racing or
	// otherwise) is reported as domain.ErrDuplicateName.
	Create(ctx context.Context, app domain.App, bootstrap domain.Token) (int64, error)
	FindByID(ctx context.Context, id int64) (domain.App, error)
	// FindByName matches the name exactly, FindByURLName case-insensitively.
	FindByName(ctx context.Context, name string) (domain.App, error)
	FindByURLName(ctx context.Context, tag string) (domain.App, error)
	FindByCreator(ctx context.Context, userID string) ([]domain.App, error)
	Count(ctx context.Context) (int64, error)
	// List returns apps ordered by id descending, newest first.
	List(ctx context.Context, offset, limit int) ([]domain.App, error)
	// SetStatus flips the app's active flag and every owned token's
	// is_app_active mirror in one transaction. Returns false when the app
	// does not exist.
	SetStatus(ctx context.Context, appID int64, active bool) (bool, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token domain.Token) error
	FindByKey(ctx context.Context, key string) (domain.Token, error)
	// MarkDeleted soft-deletes the token. Returns false when no token has
	// the given key.
	MarkDeleted(ctx context.Context, key, deletedBy string, at time.Time) (bool, error)
}
