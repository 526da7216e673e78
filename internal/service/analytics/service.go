package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/cache"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/logger"
)

// Repository loads metric rows for aggregation.
type Repository interface {
	// RowsForRange returns campaign-day rows of the workspace inside r,
	// restricted to platforms when the slice is non-empty.
	RowsForRange(ctx context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) ([]Row, error)

	// CampaignRows returns the stored days of one campaign inside r.
	CampaignRows(ctx context.Context, workspaceID, campaignID string, r domain.DateRange) ([]domain.CampaignMetric, error)
}

// Service serves dashboards and campaign series.
type Service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates an analytics service. A nil cache disables caching.
func NewService(repo Repository, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &Service{repo: repo, cache: c, ttl: ttl, now: time.Now}
}

// Summary aggregates the workspace's rows over r.
func (s *Service) Summary(ctx context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) (Summary, error) {
	rows, err := s.repo.RowsForRange(ctx, workspaceID, r, platforms)
	if err != nil {
		return Summary{}, fmt.Errorf("load metrics: %w", err)
	}
	return Aggregate(r, rows, DefaultTopCampaigns), nil
}

// Dashboard aggregates r and the preceding period of equal length and
// compares them. Results are cached per workspace, range and platform set.
func (s *Service) Dashboard(ctx context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) (*Dashboard, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	key := CacheKey(workspaceID, r, platforms)

	var cached Dashboard
	if hit, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		logger.Warn("dashboard cache read failed", "key", key, "error", err)
	} else if hit {
		return &cached, nil
	}

	current, err := s.Summary(ctx, workspaceID, r, platforms)
	if err != nil {
		return nil, err
	}
	prev, err := s.Summary(ctx, workspaceID, r.Previous(), platforms)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Summary:     current,
		Previous:    prev.Totals,
		Comparison:  Compare(current.Totals, prev.Totals),
		Filter:      platforms,
		GeneratedAt: s.now().UTC(),
	}
	if err := cache.SetJSON(ctx, s.cache, key, d, s.ttl); err != nil {
		logger.Warn("dashboard cache write failed", "key", key, "error", err)
	}
	return d, nil
}

// Period aggregates r listing every campaign and compares it with the
// previous period. Reports use it; it bypasses the dashboard cache.
func (s *Service) Period(ctx context.Context, workspaceID string, r domain.DateRange) (Summary, Comparison, error) {
	if err := r.Validate(); err != nil {
		return Summary{}, Comparison{}, err
	}
	rows, err := s.repo.RowsForRange(ctx, workspaceID, r, nil)
	if err != nil {
		return Summary{}, Comparison{}, fmt.Errorf("load metrics: %w", err)
	}
	prev, err := s.Summary(ctx, workspaceID, r.Previous(), nil)
	if err != nil {
		return Summary{}, Comparison{}, err
	}
	current := Aggregate(r, rows, math.MaxInt32)
	return current, Compare(current.Totals, prev.Totals), nil
}

// CampaignSeries returns one campaign's days inside r, zero-filled.
func (s *Service) CampaignSeries(ctx context.Context, workspaceID, campaignID string, r domain.DateRange) (*CampaignSeries, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	stored, err := s.repo.CampaignRows(ctx, workspaceID, campaignID, r)
	if err != nil {
		return nil, fmt.Errorf("load campaign metrics: %w", err)
	}
	byDay := make(map[time.Time]domain.CampaignMetric, len(stored))
	var totals KPIs
	for _, m := range stored {
		byDay[domain.Day(m.Date)] = m
		add(&totals, Row{
			Impressions: m.Impressions, Clicks: m.Clicks, Spend: m.Spend,
			Conversions: m.Conversions, Revenue: m.Revenue, Reach: m.Reach,
		})
	}

	out := &CampaignSeries{CampaignID: campaignID, Range: r, Totals: finish(totals)}
	r.Each(func(d time.Time) {
		m, ok := byDay[d]
		if !ok {
			m = domain.CampaignMetric{CampaignID: campaignID, Date: d}
		}
		out.Daily = append(out.Daily, m)
	})
	return out, nil
}

// Invalidate drops every cached dashboard of the workspace.
func (s *Service) Invalidate(ctx context.Context, workspaceID string) error {
	n, err := s.cache.DeletePrefix(ctx, "dashboard:"+workspaceID+":")
	if err != nil {
		return err
	}
	logger.Debug("dashboard cache invalidated", "workspace_id", workspaceID, "keys", n)
	return nil
}

// CacheKey is dashboard:{ws}:{from}:{to}:{platforms}, with platforms
// sorted and comma-joined, or "all".
func CacheKey(workspaceID string, r domain.DateRange, platforms []domain.Platform) string {
	ps := "all"
	if len(platforms) > 0 {
		names := make([]string, len(platforms))
		for i, p := range platforms {
			names[i] = string(p)
		}
		sort.Strings(names)
		ps = strings.Join(names, ",")
	}
	return fmt.Sprintf("dashboard:%s:%s:%s:%s", workspaceID,
		r.From.Format(domain.DateLayout), r.To.Format(domain.DateLayout), ps)
}
