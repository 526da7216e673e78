package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
)

const maxListLimit = 200

// Service implements campaign read access and the sync upsert path.
type Service struct {
	repo Repository
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, workspaceID, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, workspaceID, id)
}

// List returns campaigns matching the filter. The limit is clamped to
// 1..200 and an unknown platform is rejected.
func (s *Service) List(ctx context.Context, workspaceID string, f ListFilter) ([]domain.Campaign, int, error) {
	if f.Platform != "" && !f.Platform.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, f.Platform)
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.List(ctx, workspaceID, f)
}

// Upsert stores a campaign pulled from a platform.
func (s *Service) Upsert(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.WorkspaceID == "" || c.ConnectionID == "" || c.ExternalID == "" {
		return "", fmt.Errorf("%w: workspace, connection and external id are required", ErrInvalidInput)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Name == "" {
		c.Name = c.ExternalID
	}
	id, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return "", err
	}
	c.ID = id
	return id, nil
}
