package campaign

import (
	"context"

	"github.com/ignite/adlens/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign of the workspace. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, workspaceID, id string) (*domain.Campaign, error)

	// List returns campaigns matching the filter ordered by platform then
	// name, plus the total count before pagination.
	List(ctx context.Context, workspaceID string, filter ListFilter) ([]domain.Campaign, int, error)

	// Upsert inserts or updates the campaign keyed by (connection_id,
	// external_id) and returns the stored ID.
	Upsert(ctx context.Context, c *domain.Campaign) (string, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Platform domain.Platform
	Status   string
	Search   string
	Limit    int
	Offset   int
}
