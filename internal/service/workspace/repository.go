package workspace

import (
	"context"

	"github.com/ignite/adlens/internal/domain"
)

// Repository defines the data access contract for workspaces.
type Repository interface {
	// Create inserts a workspace. The caller assigns the ID.
	Create(ctx context.Context, ws *domain.Workspace) error

	// Get returns the workspace when it belongs to ownerID. Returns ErrNotFound otherwise.
	Get(ctx context.Context, ownerID, id string) (*domain.Workspace, error)

	// GetByID returns a workspace regardless of owner. Used by background jobs.
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)

	// List returns the owner's workspaces ordered by name.
	List(ctx context.Context, ownerID string) ([]domain.Workspace, error)

	// Update persists name, currency and timezone.
	Update(ctx context.Context, ws *domain.Workspace) error

	// Delete removes the workspace and, by cascade, everything under it.
	Delete(ctx context.Context, ownerID, id string) error
}
