package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/service/syncer"
)

const (
	// DefaultSyncInterval is how often due connections are looked up.
	DefaultSyncInterval = time.Hour

	// DefaultSyncBatch caps how many connections one tick picks up.
	DefaultSyncBatch = 100

	// DefaultSyncConcurrency bounds parallel connection syncs per tick.
	DefaultSyncConcurrency = 4
)

// DueConnections lists connections whose last sync is older than interval.
type DueConnections interface {
	ListDue(ctx context.Context, interval time.Duration, limit int) ([]domain.PlatformConnection, error)
}

// ConnectionSyncer syncs one connection.
type ConnectionSyncer interface {
	SyncConnection(ctx context.Context, connID string) (*syncer.Result, error)
}

// SyncStats is a snapshot of scheduler counters.
type SyncStats struct {
	WorkerID  string    `json:"worker_id"`
	Running   bool      `json:"running"`
	Ticks     int64     `json:"ticks"`
	Runs      int64     `json:"runs"`
	Errors    int64     `json:"errors"`
	Skipped   int64     `json:"skipped"`
	LastTick  time.Time `json:"last_tick,omitempty"`
	Interval  string    `json:"interval"`
	BatchSize int       `json:"batch_size"`
}

// SyncScheduler periodically syncs every connection that is due.
type SyncScheduler struct {
	conns       DueConnections
	syncer      ConnectionSyncer
	workerID    string
	interval    time.Duration
	batch       int
	concurrency int

	// Stats
	ticks    int64
	runs     int64
	errors   int64
	skipped  int64
	lastTick atomic.Int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewSyncScheduler creates a scheduler; zero interval or concurrency use
// the defaults.
func NewSyncScheduler(conns DueConnections, s ConnectionSyncer, interval time.Duration, concurrency int) *SyncScheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "adlens-worker"
	}
	return &SyncScheduler{
		conns:       conns,
		syncer:      s,
		workerID:    fmt.Sprintf("sync-%s-%d", host, time.Now().UnixNano()%10000),
		interval:    interval,
		batch:       DefaultSyncBatch,
		concurrency: concurrency,
	}
}

// Start begins the polling loop. The first tick runs immediately.
func (ss *SyncScheduler) Start() error {
	ss.mu.Lock()
	if ss.running {
		ss.mu.Unlock()
		return fmt.Errorf("sync scheduler already running")
	}
	ss.running = true
	ss.ctx, ss.cancel = context.WithCancel(context.Background())
	ss.mu.Unlock()

	logger.Info("sync scheduler starting", "worker_id", ss.workerID, "interval", ss.interval.String(), "concurrency", ss.concurrency)

	ss.wg.Add(1)
	go ss.loop()
	return nil
}

// Stop cancels the loop and waits for in-flight syncs to return.
func (ss *SyncScheduler) Stop() {
	ss.mu.Lock()
	if !ss.running {
		ss.mu.Unlock()
		return
	}
	ss.running = false
	ss.cancel()
	ss.mu.Unlock()

	ss.wg.Wait()
	logger.Info("sync scheduler stopped", "worker_id", ss.workerID,
		"runs", atomic.LoadInt64(&ss.runs), "errors", atomic.LoadInt64(&ss.errors))
}

// IsRunning reports whether the loop is active.
func (ss *SyncScheduler) IsRunning() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.running
}

// Stats returns the current counters.
func (ss *SyncScheduler) Stats() SyncStats {
	st := SyncStats{
		WorkerID:  ss.workerID,
		Running:   ss.IsRunning(),
		Ticks:     atomic.LoadInt64(&ss.ticks),
		Runs:      atomic.LoadInt64(&ss.runs),
		Errors:    atomic.LoadInt64(&ss.errors),
		Skipped:   atomic.LoadInt64(&ss.skipped),
		Interval:  ss.interval.String(),
		BatchSize: ss.batch,
	}
	if ns := ss.lastTick.Load(); ns > 0 {
		st.LastTick = time.Unix(0, ns).UTC()
	}
	return st
}

func (ss *SyncScheduler) loop() {
	defer ss.wg.Done()

	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	ss.RunOnce(ss.ctx)
	for {
		select {
		case <-ss.ctx.Done():
			return
		case <-ticker.C:
			ss.RunOnce(ss.ctx)
		}
	}
}

// RunOnce syncs every due connection with bounded concurrency and returns
// how many syncs were attempted.
func (ss *SyncScheduler) RunOnce(ctx context.Context) int {
	atomic.AddInt64(&ss.ticks, 1)
	ss.lastTick.Store(time.Now().UnixNano())

	due, err := ss.conns.ListDue(ctx, ss.interval, ss.batch)
	if err != nil {
		if ctx.Err() == nil {
			atomic.AddInt64(&ss.errors, 1)
			logger.Error("list due connections failed", "error", err)
		}
		return 0
	}
	if len(due) == 0 {
		return 0
	}
	logger.Info("syncing due connections", "count", len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ss.concurrency)
	for _, c := range due {
		id := c.ID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			_, err := ss.syncer.SyncConnection(gctx, id)
			switch {
			case errors.Is(err, syncer.ErrLocked):
				atomic.AddInt64(&ss.skipped, 1)
			case err != nil:
				atomic.AddInt64(&ss.errors, 1)
				logger.Warn("scheduled sync failed", "connection_id", id, "error", err)
			default:
				atomic.AddInt64(&ss.runs, 1)
			}
			// one failing connection never cancels the others
			return nil
		})
	}
	_ = g.Wait()
	return len(due)
}
