package insight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu    sync.Mutex
	items []domain.Insight
}

func (m *memRepo) ReplaceNew(_ context.Context, ws string, items []domain.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, in := range m.items {
		if in.WorkspaceID != ws || in.Status != domain.InsightNew {
			kept = append(kept, in)
		}
	}
	m.items = append(kept, items...)
	return nil
}

func (m *memRepo) List(_ context.Context, ws string, status domain.InsightStatus) ([]domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Insight
	for _, in := range m.items {
		if in.WorkspaceID == ws && (status == "" || in.Status == status) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, ws, id string, status domain.InsightStatus) (*domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].WorkspaceID == ws {
			m.items[i].Status = status
			cp := m.items[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

type staticDashboards struct{ d *analytics.Dashboard }

func (s staticDashboards) Dashboard(context.Context, string, domain.DateRange, []domain.Platform) (*analytics.Dashboard, error) {
	return s.d, nil
}

type staticWorkspaces struct{}

func (staticWorkspaces) GetByID(_ context.Context, id string) (*domain.Workspace, error) {
	return &domain.Workspace{ID: id, Name: "Acme", Currency: "USD"}, nil
}

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

var testRange = domain.NewDateRange(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))

func dashboard() *analytics.Dashboard {
	return &analytics.Dashboard{Summary: analytics.Summary{
		Range:  testRange,
		Totals: analytics.KPIs{Impressions: 100, Clicks: 3, Spend: 10, Revenue: 5, ROAS: 0.5},
		Platforms: []analytics.PlatformSummary{{
			Platform: domain.PlatformGoogleAds, Name: "Google Ads", SpendShare: 100,
			KPIs: analytics.KPIs{Impressions: 100, Clicks: 3, Spend: 10, Revenue: 5, ROAS: 0.5},
		}},
	}}
}

func TestGenerateWithLLM(t *testing.T) {
	repo := &memRepo{}
	llm := &fakeLLM{reply: `{"insights":[{"title":"Fix ROAS","category":"budget","priority":"high"},{"title":"Test video","category":"creative","priority":"low"}]}`}
	svc := NewService(repo, staticDashboards{dashboard()}, staticWorkspaces{}, llm, Options{})

	items, err := svc.Generate(context.Background(), "ws1", testRange)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, in := range items {
		assert.NotEmpty(t, in.ID)
		assert.Equal(t, "ws1", in.WorkspaceID)
		assert.Equal(t, domain.InsightNew, in.Status)
		assert.Equal(t, "fake", in.Provider)
	}
	assert.Contains(t, llm.prompt, `"workspace": "Acme"`)
	assert.Contains(t, llm.prompt, "2024-03-01..2024-03-07")
}

func TestGenerateFallsBackToRules(t *testing.T) {
	for name, llm := range map[string]*fakeLLM{
		"llm error":     {err: errors.New("throttled")},
		"unparseable":   {reply: "I am unable to help with that."},
		"empty answers": {reply: `{"insights":[]}`},
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&memRepo{}, staticDashboards{dashboard()}, staticWorkspaces{}, llm, Options{})
			items, err := svc.Generate(context.Background(), "ws1", testRange)
			require.NoError(t, err)
			require.NotEmpty(t, items)
			assert.Equal(t, "rules", items[0].Provider)
			assert.Equal(t, "Google Ads is returning less than it spends", items[0].Title)
		})
	}
}

func TestGenerateReplacesOnlyNew(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, staticDashboards{dashboard()}, staticWorkspaces{}, nil, Options{})
	assert.Equal(t, "rules", svc.Provider())
	ctx := context.Background()

	first, err := svc.Generate(ctx, "ws1", testRange)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "ws1", first[0].ID, domain.InsightApplied)
	require.NoError(t, err)

	_, err = svc.Generate(ctx, "ws1", testRange)
	require.NoError(t, err)

	all, err := svc.List(ctx, "ws1", "")
	require.NoError(t, err)
	applied, err := svc.List(ctx, "ws1", domain.InsightApplied)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.Len(t, all, len(first)+1)
}

func TestStatusValidation(t *testing.T) {
	svc := NewService(&memRepo{}, staticDashboards{dashboard()}, staticWorkspaces{}, nil, Options{})
	_, err := svc.UpdateStatus(context.Background(), "ws1", "x", "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.List(context.Background(), "ws1", "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateStatus(context.Background(), "ws1", "missing", domain.InsightDismissed)
	assert.ErrorIs(t, err, ErrNotFound)
}
