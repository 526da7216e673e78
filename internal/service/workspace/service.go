package workspace

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/logger"
)

const maxNameLength = 120

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Service implements workspace business logic.
type Service struct {
	repo Repository
}

// NewService creates a workspace service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields for creating a workspace.
type CreateInput struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

// UpdateInput holds the mutable fields of a workspace. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
	Timezone *string `json:"timezone"`
}

// Create validates and persists a new workspace owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Workspace, error) {
	ws := &domain.Workspace{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(in.Name),
		Currency: strings.ToUpper(strings.TrimSpace(in.Currency)),
		Timezone: strings.TrimSpace(in.Timezone),
	}
	if ws.Currency == "" {
		ws.Currency = "USD"
	}
	if ws.Timezone == "" {
		ws.Timezone = "UTC"
	}
	if err := validate(ws); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ws.CreatedAt, ws.UpdatedAt = now, now
	if err := s.repo.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logger.Info("workspace created", "workspace_id", ws.ID, "owner_id", ownerID)
	return ws, nil
}

// Get returns a workspace owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*domain.Workspace, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// GetByID returns a workspace without an ownership check.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all workspaces owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Workspace, error) {
	return s.repo.List(ctx, ownerID)
}

// Update applies the non-nil fields of in.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Workspace, error) {
	ws, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		ws.Name = strings.TrimSpace(*in.Name)
	}
	if in.Currency != nil {
		ws.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Timezone != nil {
		ws.Timezone = strings.TrimSpace(*in.Timezone)
	}
	if err := validate(ws); err != nil {
		return nil, err
	}
	ws.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("update workspace: %w", err)
	}
	return ws, nil
}

// Delete removes a workspace owned by ownerID.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.Info("workspace deleted", "workspace_id", id, "owner_id", ownerID)
	return nil
}

func validate(ws *domain.Workspace) error {
	if ws.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(ws.Name) > maxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxNameLength)
	}
	if !currencyRe.MatchString(ws.Currency) {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(ws.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, ws.Timezone)
	}
	return nil
}
