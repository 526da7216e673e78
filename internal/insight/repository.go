package insight

import (
	"context"

	"github.com/ignite/adlens/internal/domain"
)

// Repository persists generated insights.
type Repository interface {
	// ReplaceNew deletes the workspace's insights still in status new and
	// inserts items, atomically.
	ReplaceNew(ctx context.Context, workspaceID string, items []domain.Insight) error

	// List returns insights newest first; an empty status returns all.
	List(ctx context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error)

	// UpdateStatus sets the status and returns the updated insight.
	// Returns ErrNotFound if it doesn't exist in the workspace.
	UpdateStatus(ctx context.Context, workspaceID, id string, status domain.InsightStatus) (*domain.Insight, error)
}
