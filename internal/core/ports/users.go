package ports

import (
	"context"

	"github.com/setlocale/registry/internal/core/domain"
)

// UserDirectory is the read-only view of the external identity store.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}
