package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/distlock"
	"github.com/ignite/adlens/internal/platform"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

type fakeConns struct {
	mu       sync.Mutex
	conns    map[string]*domain.PlatformConnection
	recorded map[string]error
	ensured  int
	loaded   int
}

func newFakeConns(conns ...domain.PlatformConnection) *fakeConns {
	f := &fakeConns{conns: map[string]*domain.PlatformConnection{}, recorded: map[string]error{}}
	for i := range conns {
		c := conns[i]
		f.conns[c.ID] = &c
	}
	return f
}

func (f *fakeConns) GetByID(_ context.Context, id string) (*domain.PlatformConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded++
	c, ok := f.conns[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConns) List(_ context.Context, ws string) ([]domain.PlatformConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PlatformConnection
	for _, c := range f.conns {
		if c.WorkspaceID == ws {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConns) EnsureFreshToken(_ context.Context, c *domain.PlatformConnection) (*domain.PlatformConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	if !c.IsUsable() {
		return c, connection.ErrNotConnected
	}
	return c, nil
}

func (f *fakeConns) RecordSync(_ context.Context, c *domain.PlatformConnection, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[c.ID] = err
	return nil
}

type fakeConnector struct {
	p       domain.Platform
	data    []platform.CampaignData
	err     error
	got     domain.DateRange
	fetches int
	// delay holds FetchCampaigns until it elapses or the context ends.
	delay time.Duration
}

func (f *fakeConnector) Platform() domain.Platform { return f.p }
func (f *fakeConnector) AuthCodeURL(string) string { return "" }
func (f *fakeConnector) Exchange(context.Context, string) (*oauth2.Token, error) {
	return nil, nil
}
func (f *fakeConnector) Refresh(context.Context, *oauth2.Token) (*oauth2.Token, error) {
	return nil, nil
}
func (f *fakeConnector) Account(context.Context, *oauth2.Token) (platform.Account, error) {
	return platform.Account{}, nil
}
func (f *fakeConnector) FetchCampaigns(ctx context.Context, _ *oauth2.Token, _ string, r domain.DateRange) ([]platform.CampaignData, error) {
	f.got = r
	f.fetches++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.data, f.err
}

type memStore struct {
	mu        sync.Mutex
	campaigns map[string]string
	metrics   map[string]domain.CampaignMetric
}

func newMemStore() *memStore {
	return &memStore{campaigns: map[string]string{}, metrics: map[string]domain.CampaignMetric{}}
}

func (m *memStore) Upsert(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.ConnectionID + "/" + c.ExternalID
	if id, ok := m.campaigns[key]; ok {
		return id, nil
	}
	id := "camp-" + c.ExternalID
	m.campaigns[key] = id
	return id, nil
}

func (m *memStore) UpsertDaily(_ context.Context, rows []domain.CampaignMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.metrics[r.CampaignID+"/"+r.Date.Format(domain.DateLayout)] = r
	}
	return nil
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingInvalidator) Invalidate(_ context.Context, ws string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[ws]++
	return nil
}

type fakeLock struct {
	held map[string]bool
	mu   *sync.Mutex
	key  string
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[l.key] {
		return false, nil
	}
	l.held[l.key] = true
	return true, nil
}

func (l *fakeLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, l.key)
	return nil
}

// renewableLock adds Extend to fakeLock. extendErr makes every renewal fail.
type renewableLock struct {
	*fakeLock
	extends   *int32
	extendErr error
}

func (l *renewableLock) Extend(context.Context, time.Duration) error {
	atomic.AddInt32(l.extends, 1)
	return l.extendErr
}

func lockFactory(held map[string]bool) distlock.Factory {
	var mu sync.Mutex
	return func(key string, _ time.Duration) distlock.DistLock {
		return &fakeLock{held: held, mu: &mu, key: key}
	}
}

func connected(id string, p domain.Platform) domain.PlatformConnection {
	return domain.PlatformConnection{
		ID: id, WorkspaceID: "ws1", Platform: p,
		Status: domain.ConnectionConnected, AccessToken: "tok", AccountID: "acc",
	}
}

func newTestService(conns *fakeConns, store *memStore, inv *countingInvalidator, held map[string]bool, connectors ...platform.Connector) *Service {
	svc := NewService(conns, platform.NewRegistry(connectors...), store, store, inv, lockFactory(held), Options{LookbackDays: 7})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func day(s string) time.Time {
	t, _ := time.Parse(domain.DateLayout, s)
	return t
}

func TestSyncConnection(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformFacebook))
	store := newMemStore()
	inv := &countingInvalidator{}
	fb := &fakeConnector{p: domain.PlatformFacebook, data: []platform.CampaignData{{
		ExternalID: "123",
		Name:       "Spring Sale",
		Status:     "ACTIVE",
		Daily: []platform.MetricRow{
			{Date: day("2024-03-09"), Impressions: 1000, Clicks: 25, Spend: 50, Revenue: 125},
			{Date: day("2024-03-10"), Impressions: 0, Clicks: 0},
			{Date: day("2024-02-01"), Impressions: 999}, // outside window
		},
	}}}
	svc := newTestService(conns, store, inv, map[string]bool{}, fb)

	res, err := svc.SyncConnection(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Campaigns)
	assert.Equal(t, 2, res.Rows)
	assert.False(t, res.Skipped)

	assert.Equal(t, day("2024-03-04"), fb.got.From)
	assert.Equal(t, day("2024-03-10"), fb.got.To)

	m := store.metrics["camp-123/2024-03-09"]
	assert.Equal(t, 2.5, m.CTR)
	assert.Equal(t, 2.5, m.ROAS)
	_, outside := store.metrics["camp-123/2024-02-01"]
	assert.False(t, outside)

	err, ok := conns.recorded["c1"]
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, inv.calls["ws1"])
}

func TestSyncConnectionLocked(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformGoogleAds))
	held := map[string]bool{"sync:c1": true}
	svc := newTestService(conns, newMemStore(), &countingInvalidator{}, held, &fakeConnector{p: domain.PlatformGoogleAds})

	res, err := svc.SyncConnection(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrLocked)
	require.NotNil(t, res)
	assert.True(t, res.Skipped)
	assert.Equal(t, "c1", res.ConnectionID)
	assert.Equal(t, 0, conns.loaded, "connection not read without the lock")
	assert.Equal(t, 0, conns.ensured)
}

func TestSyncConnectionReadsUnderLock(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformGoogleAds))
	ads := &fakeConnector{p: domain.PlatformGoogleAds}
	svc := newTestService(conns, newMemStore(), &countingInvalidator{}, map[string]bool{}, ads)

	// the user disconnects while the run waits for the lock
	var mu sync.Mutex
	held := map[string]bool{}
	svc.locks = func(key string, _ time.Duration) distlock.DistLock {
		conns.mu.Lock()
		c := conns.conns["c1"]
		c.Status = domain.ConnectionDisconnected
		c.AccessToken = ""
		conns.mu.Unlock()
		return &fakeLock{held: held, mu: &mu, key: key}
	}

	res, err := svc.SyncConnection(context.Background(), "c1")
	assert.ErrorIs(t, err, connection.ErrNotConnected)
	assert.Equal(t, domain.PlatformGoogleAds, res.Platform)
	assert.Equal(t, 0, ads.fetches)
	_, recorded := conns.recorded["c1"]
	assert.False(t, recorded)
	assert.Empty(t, held)
}

func TestSyncConnectionRenewsLock(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformFacebook))
	fb := &fakeConnector{p: domain.PlatformFacebook, delay: 80 * time.Millisecond}
	svc := newTestService(conns, newMemStore(), &countingInvalidator{}, map[string]bool{}, fb)
	svc.opts.LockTTL = 30 * time.Millisecond

	var mu sync.Mutex
	var extends int32
	held := map[string]bool{}
	svc.locks = func(key string, _ time.Duration) distlock.DistLock {
		return &renewableLock{fakeLock: &fakeLock{held: held, mu: &mu, key: key}, extends: &extends}
	}

	_, err := svc.SyncConnection(context.Background(), "c1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&extends), int32(2))
	assert.Empty(t, held)

	// no renewals once the run has returned
	n := atomic.LoadInt32(&extends)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt32(&extends))
}

func TestSyncConnectionAbortsWhenLockLost(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformFacebook))
	store := newMemStore()
	fb := &fakeConnector{p: domain.PlatformFacebook, delay: time.Minute, data: []platform.CampaignData{{ExternalID: "1"}}}
	svc := newTestService(conns, store, &countingInvalidator{}, map[string]bool{}, fb)
	svc.opts.LockTTL = 30 * time.Millisecond

	var mu sync.Mutex
	var extends int32
	held := map[string]bool{}
	svc.locks = func(key string, _ time.Duration) distlock.DistLock {
		return &renewableLock{fakeLock: &fakeLock{held: held, mu: &mu, key: key}, extends: &extends, extendErr: distlock.ErrNotHeld}
	}

	start := time.Now()
	res, err := svc.SyncConnection(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrLockLost)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, res.Error, "lock lost")
	assert.Empty(t, store.campaigns)
	assert.Equal(t, int32(1), atomic.LoadInt32(&extends))
}

func TestSyncConnectionFetchError(t *testing.T) {
	conns := newFakeConns(connected("c1", domain.PlatformGoogleAds))
	inv := &countingInvalidator{}
	authErr := &platform.APIError{Platform: domain.PlatformGoogleAds, Status: 401, Body: "unauthenticated"}
	held := map[string]bool{}
	svc := newTestService(conns, newMemStore(), inv, held, &fakeConnector{p: domain.PlatformGoogleAds, err: authErr})

	res, err := svc.SyncConnection(context.Background(), "c1")
	require.Error(t, err)
	assert.Contains(t, res.Error, "401")
	assert.ErrorIs(t, conns.recorded["c1"], authErr)
	assert.Equal(t, 0, inv.calls["ws1"])
	assert.Empty(t, held, "lock released after failure")
}

func TestSyncWorkspace(t *testing.T) {
	expired := connected("c3", domain.PlatformInstagram)
	expired.Status = domain.ConnectionExpired
	conns := newFakeConns(
		connected("c1", domain.PlatformFacebook),
		connected("c2", domain.PlatformGoogleAds),
		expired,
	)
	fb := &fakeConnector{p: domain.PlatformFacebook, data: []platform.CampaignData{{ExternalID: "1"}}}
	ads := &fakeConnector{p: domain.PlatformGoogleAds, err: errors.New("boom")}
	ig := &fakeConnector{p: domain.PlatformInstagram}
	svc := newTestService(conns, newMemStore(), &countingInvalidator{}, map[string]bool{}, fb, ads, ig)

	report, err := svc.SyncWorkspace(context.Background(), "ws1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.PlatformFacebook, report.Results[0].Platform)
	assert.Equal(t, domain.PlatformGoogleAds, report.Results[1].Platform)
	assert.Equal(t, "boom", report.Results[1].Error)
	assert.Equal(t, "2024-03-04..2024-03-10", report.Range)
}
