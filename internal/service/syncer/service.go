package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/distlock"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/platform"
	"github.com/ignite/adlens/internal/service/connection"
	"golang.org/x/sync/errgroup"
)

// Connections is the part of the connection service a sync needs.
type Connections interface {
	GetByID(ctx context.Context, id string) (*domain.PlatformConnection, error)
	List(ctx context.Context, workspaceID string) ([]domain.PlatformConnection, error)
	EnsureFreshToken(ctx context.Context, conn *domain.PlatformConnection) (*domain.PlatformConnection, error)
	RecordSync(ctx context.Context, conn *domain.PlatformConnection, syncErr error) error
}

// CampaignStore upserts campaigns keyed by (connection_id, external_id).
type CampaignStore interface {
	Upsert(ctx context.Context, c *domain.Campaign) (string, error)
}

// MetricStore upserts daily metric rows keyed by (campaign_id, date).
type MetricStore interface {
	UpsertDaily(ctx context.Context, rows []domain.CampaignMetric) error
}

// Invalidator drops cached dashboards for a workspace.
type Invalidator interface {
	Invalidate(ctx context.Context, workspaceID string) error
}

// Options tunes sync behaviour.
type Options struct {
	LookbackDays int
	Concurrency  int
	LockTTL      time.Duration
}

// Result is the outcome of syncing one connection.
type Result struct {
	ConnectionID string          `json:"connection_id"`
	Platform     domain.Platform `json:"platform"`
	Campaigns    int             `json:"campaigns"`
	Rows         int             `json:"rows"`
	Skipped      bool            `json:"skipped,omitempty"`
	Error        string          `json:"error,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
}

// SyncReport summarises a workspace-wide sync.
type SyncReport struct {
	WorkspaceID string   `json:"workspace_id"`
	Range       string   `json:"range"`
	Results     []Result `json:"results"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
}

// Service runs platform syncs.
type Service struct {
	conns     Connections
	registry  *platform.Registry
	campaigns CampaignStore
	metrics   MetricStore
	cache     Invalidator
	locks     distlock.Factory
	opts      Options
	now       func() time.Time
}

// NewService creates a sync service. cache may be nil.
func NewService(conns Connections, registry *platform.Registry, campaigns CampaignStore, metrics MetricStore, cache Invalidator, locks distlock.Factory, opts Options) *Service {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 30
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	return &Service{
		conns:     conns,
		registry:  registry,
		campaigns: campaigns,
		metrics:   metrics,
		cache:     cache,
		locks:     locks,
		opts:      opts,
		now:       time.Now,
	}
}

// Window returns the range the next sync will cover.
func (s *Service) Window() domain.DateRange {
	return domain.LastNDays(s.now(), s.opts.LookbackDays)
}

// SyncConnection pulls the lookback window for one connection. A run that
// finds the lock held returns a skipped Result and ErrLocked. The connection
// is loaded only once the lock is held, so a run never works from a row
// read before a concurrent disconnect or re-authorization.
func (s *Service) SyncConnection(ctx context.Context, connID string) (*Result, error) {
	start := time.Now()
	res := &Result{ConnectionID: connID}

	lock := s.locks("sync:"+connID, s.opts.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		res.Skipped = true
		logger.Debug("sync skipped, lock held", "connection_id", connID)
		return res, ErrLocked
	}
	runCtx, stop := s.keepAlive(ctx, lock, connID)
	defer func() {
		stop()
		if err := lock.Release(context.Background()); err != nil {
			logger.Warn("failed to release sync lock", "connection_id", connID, "error", err)
		}
	}()

	conn, err := s.conns.GetByID(runCtx, connID)
	if err != nil {
		return nil, err
	}
	res.Platform = conn.Platform

	err = s.run(runCtx, conn, res)
	if cause := context.Cause(runCtx); errors.Is(cause, ErrLockLost) {
		err = cause
	}
	res.DurationMs = time.Since(start).Milliseconds()
	observability.RecordSync(string(conn.Platform), err, time.Since(start))
	if err != nil {
		res.Error = err.Error()
		logger.Warn("sync failed", "connection_id", conn.ID, "platform", conn.Platform, "error", err)
		return res, err
	}
	logger.Info("sync complete",
		"connection_id", conn.ID, "platform", conn.Platform,
		"campaigns", res.Campaigns, "rows", res.Rows, "duration_ms", res.DurationMs)
	return res, nil
}

// keepAlive renews an expiring lock every third of LockTTL until stop is
// called. Losing the lock cancels the returned context with ErrLockLost.
// stop waits for the renewal goroutine so the lock is never used
// concurrently.
func (s *Service) keepAlive(ctx context.Context, lock distlock.DistLock, connID string) (context.Context, func()) {
	ext, ok := lock.(distlock.Extender)
	if !ok {
		return ctx, func() {}
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(s.opts.LockTTL / 3)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-runCtx.Done():
				return
			case <-t.C:
				if err := ext.Extend(runCtx, s.opts.LockTTL); err != nil {
					if runCtx.Err() != nil {
						return
					}
					logger.Warn("sync lock lost, aborting run", "connection_id", connID, "error", err)
					cancel(fmt.Errorf("%w: %v", ErrLockLost, err))
					return
				}
			}
		}
	}()
	return runCtx, func() {
		close(done)
		wg.Wait()
		cancel(nil)
	}
}

func (s *Service) run(ctx context.Context, conn *domain.PlatformConnection, res *Result) error {
	conn, err := s.conns.EnsureFreshToken(ctx, conn)
	if err != nil {
		return err
	}
	connector, err := s.registry.Get(conn.Platform)
	if err != nil {
		return err
	}

	window := s.Window()
	data, err := connector.FetchCampaigns(ctx, connection.Token(conn), conn.AccountID, window)
	if err != nil {
		s.record(ctx, conn, err)
		return err
	}

	for _, cd := range data {
		c := &domain.Campaign{
			WorkspaceID:  conn.WorkspaceID,
			ConnectionID: conn.ID,
			Platform:     conn.Platform,
			ExternalID:   cd.ExternalID,
			Name:         cd.Name,
			Status:       cd.Status,
			Objective:    cd.Objective,
			DailyBudget:  cd.DailyBudget,
		}
		id, err := s.campaigns.Upsert(ctx, c)
		if err != nil {
			err = fmt.Errorf("upsert campaign %s: %w", cd.ExternalID, err)
			s.record(ctx, conn, err)
			return err
		}
		rows := toMetrics(id, window, cd.Daily)
		if len(rows) > 0 {
			if err := s.metrics.UpsertDaily(ctx, rows); err != nil {
				err = fmt.Errorf("upsert metrics for %s: %w", cd.ExternalID, err)
				s.record(ctx, conn, err)
				return err
			}
		}
		res.Campaigns++
		res.Rows += len(rows)
	}

	if err := s.conns.RecordSync(ctx, conn, nil); err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, conn.WorkspaceID); err != nil {
			logger.Warn("failed to invalidate dashboard cache", "workspace_id", conn.WorkspaceID, "error", err)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, conn *domain.PlatformConnection, syncErr error) {
	if err := s.conns.RecordSync(ctx, conn, syncErr); err != nil {
		logger.Error("failed to record sync error", "connection_id", conn.ID, "error", err)
	}
}

// toMetrics converts platform rows to stored metrics, dropping rows outside
// the window and deriving CTR and ROAS.
func toMetrics(campaignID string, window domain.DateRange, daily []platform.MetricRow) []domain.CampaignMetric {
	out := make([]domain.CampaignMetric, 0, len(daily))
	for _, row := range daily {
		if !window.Contains(row.Date) {
			continue
		}
		m := domain.CampaignMetric{
			CampaignID:  campaignID,
			Date:        domain.Day(row.Date),
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			Spend:       domain.Round2(row.Spend),
			Conversions: row.Conversions,
			Revenue:     domain.Round2(row.Revenue),
			Reach:       row.Reach,
			Extra:       row.Extra,
		}
		m.Derive()
		out = append(out, m)
	}
	return out
}

// SyncWorkspace syncs every connected connection of the workspace with
// bounded concurrency. Individual failures are reported, not returned.
func (s *Service) SyncWorkspace(ctx context.Context, workspaceID string) (*SyncReport, error) {
	conns, err := s.conns.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{WorkspaceID: workspaceID, Range: s.Window().String()}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, c := range conns {
		if c.Status != domain.ConnectionConnected {
			continue
		}
		id := c.ID
		p := c.Platform
		g.Go(func() error {
			res, err := s.SyncConnection(gctx, id)
			if res == nil {
				res = &Result{ConnectionID: id}
				if err != nil {
					res.Error = err.Error()
				}
			}
			if res.Platform == "" {
				res.Platform = p
			}
			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, *res)
			switch {
			case errors.Is(err, ErrLocked):
				report.Skipped++
			case err != nil:
				report.Failed++
			default:
				report.Succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.ConnectionID < b.ConnectionID
	})
	logger.Info("workspace sync complete",
		"workspace_id", workspaceID, "succeeded", report.Succeeded,
		"failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}
