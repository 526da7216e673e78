package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/service/analytics"
)

// Dashboards loads the aggregated metrics an insight run reads.
type Dashboards interface {
	Dashboard(ctx context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) (*analytics.Dashboard, error)
}

// Workspaces resolves workspace details for the prompt.
type Workspaces interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
}

// Options tunes generation.
type Options struct {
	MaxInsights int
	Timeout     time.Duration
}

// Service generates and manages insights.
type Service struct {
	repo       Repository
	dashboards Dashboards
	workspaces Workspaces
	llm        LLM
	rules      RuleEngine
	opts       Options
	now        func() time.Time
}

// NewService creates an insight service. A nil llm uses the rule engine only.
func NewService(repo Repository, dashboards Dashboards, workspaces Workspaces, llm LLM, opts Options) *Service {
	if opts.MaxInsights <= 0 {
		opts.MaxInsights = DefaultMaxInsights
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	return &Service{
		repo:       repo,
		dashboards: dashboards,
		workspaces: workspaces,
		llm:        llm,
		opts:       opts,
		now:        time.Now,
	}
}

// Provider names the configured generator.
func (s *Service) Provider() string {
	if s.llm == nil {
		return s.rules.Name()
	}
	return s.llm.Name()
}

// Generate produces insights for r and replaces the workspace's
// unreviewed ones. LLM failures fall back to the rule engine.
func (s *Service) Generate(ctx context.Context, workspaceID string, r domain.DateRange) ([]domain.Insight, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	d, err := s.dashboards.Dashboard(ctx, workspaceID, r, nil)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	provider := s.rules.Name()
	var items []domain.Insight
	if s.llm != nil {
		items, err = s.fromLLM(ctx, ws, d)
		if err != nil {
			logger.Warn("llm insight generation failed, using rules",
				"workspace_id", workspaceID, "provider", s.llm.Name(), "error", err)
		} else {
			provider = s.llm.Name()
		}
	}
	if len(items) == 0 {
		items = s.rules.Generate(d)
		if len(items) > s.opts.MaxInsights {
			items = items[:s.opts.MaxInsights]
		}
	}

	now := s.now().UTC()
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].WorkspaceID = workspaceID
		items[i].Status = domain.InsightNew
		items[i].Provider = provider
		items[i].CreatedAt = now
	}
	if err := s.repo.ReplaceNew(ctx, workspaceID, items); err != nil {
		return nil, fmt.Errorf("store insights: %w", err)
	}
	observability.RecordInsights(provider, len(items))
	logger.Info("insights generated", "workspace_id", workspaceID, "provider", provider, "count", len(items))
	return items, nil
}

func (s *Service) fromLLM(ctx context.Context, ws *domain.Workspace, d *analytics.Dashboard) ([]domain.Insight, error) {
	prompt, err := BuildPrompt(ws, d, s.opts.MaxInsights)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	reply, err := s.llm.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return ParseResponse(reply, s.opts.MaxInsights)
}

// List returns the workspace's insights, optionally filtered by status.
func (s *Service) List(ctx context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.repo.List(ctx, workspaceID, status)
}

// UpdateStatus records what the user did with an insight.
func (s *Service) UpdateStatus(ctx context.Context, workspaceID, id string, status domain.InsightStatus) (*domain.Insight, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	in, err := s.repo.UpdateStatus(ctx, workspaceID, id, status)
	if err != nil {
		return nil, err
	}
	logger.Info("insight status updated", "workspace_id", workspaceID, "insight_id", id, "status", status)
	return in, nil
}
