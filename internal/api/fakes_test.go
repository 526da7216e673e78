package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/adlens/internal/auth"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/report"
	"github.com/ignite/adlens/internal/service/analytics"
	"github.com/ignite/adlens/internal/service/campaign"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/syncer"
	"github.com/ignite/adlens/internal/service/workspace"
)

const testUserHeader = "X-Test-User"

// headerAuth authenticates requests carrying X-Test-User.
type headerAuth struct{}

func (headerAuth) HandleLogin(w http.ResponseWriter, r *http.Request)    { w.WriteHeader(http.StatusFound) }
func (headerAuth) HandleCallback(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusFound) }
func (headerAuth) HandleLogout(w http.ResponseWriter, r *http.Request)   { w.WriteHeader(http.StatusFound) }
func (headerAuth) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"user": r.Header.Get(testUserHeader)})
}

func (headerAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(testUserHeader)
		if uid == "" {
			httputil.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		sess := &auth.Session{UserID: uid, Email: uid + "@example.com"}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

type fakeWorkspaces struct {
	mu   sync.Mutex
	byID map[string]*domain.Workspace
	err  error
}

func newFakeWorkspaces(ws ...*domain.Workspace) *fakeWorkspaces {
	f := &fakeWorkspaces{byID: make(map[string]*domain.Workspace)}
	for _, w := range ws {
		f.byID[w.ID] = w
	}
	return f
}

func (f *fakeWorkspaces) Create(_ context.Context, ownerID string, in workspace.CreateInput) (*domain.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	if in.Name == "" {
		return nil, workspace.ErrInvalidInput
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ws := &domain.Workspace{ID: "ws-new", OwnerID: ownerID, Name: in.Name, Currency: "USD", Timezone: "UTC"}
	f.byID[ws.ID] = ws
	return ws, nil
}

func (f *fakeWorkspaces) Get(_ context.Context, ownerID, id string) (*domain.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws, ok := f.byID[id]
	if !ok || ws.OwnerID != ownerID {
		return nil, workspace.ErrNotFound
	}
	return ws, nil
}

func (f *fakeWorkspaces) List(_ context.Context, ownerID string) ([]domain.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Workspace
	for _, ws := range f.byID {
		if ws.OwnerID == ownerID {
			out = append(out, *ws)
		}
	}
	return out, nil
}

func (f *fakeWorkspaces) Update(ctx context.Context, ownerID, id string, in workspace.UpdateInput) (*domain.Workspace, error) {
	ws, err := f.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		ws.Name = *in.Name
	}
	return ws, nil
}

func (f *fakeWorkspaces) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeConnections struct {
	conns       map[string]*domain.PlatformConnection
	completeRes *domain.PlatformConnection
	completeErr error
	completedBy []string
	begun       []domain.Platform
	disconnects []string
}

func (f *fakeConnections) Begin(_ context.Context, userID, workspaceID string, p domain.Platform) (string, *domain.PlatformConnection, error) {
	f.begun = append(f.begun, p)
	return "https://accounts.example.com/auth?state=abc", &domain.PlatformConnection{ID: "conn-new", WorkspaceID: workspaceID, Platform: p}, nil
}

func (f *fakeConnections) Complete(_ context.Context, userID, rawState, code, providerErr string) (*domain.PlatformConnection, error) {
	f.completedBy = append(f.completedBy, userID)
	return f.completeRes, f.completeErr
}

func (f *fakeConnections) List(_ context.Context, workspaceID string) ([]domain.PlatformConnection, error) {
	var out []domain.PlatformConnection
	for _, c := range f.conns {
		if c.WorkspaceID == workspaceID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConnections) Get(_ context.Context, workspaceID, id string) (*domain.PlatformConnection, error) {
	c, ok := f.conns[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, connection.ErrNotFound
	}
	return c, nil
}

func (f *fakeConnections) Disconnect(ctx context.Context, workspaceID, id string) error {
	if _, err := f.Get(ctx, workspaceID, id); err != nil {
		return err
	}
	f.disconnects = append(f.disconnects, id)
	return nil
}

type fakeSync struct {
	connErr error
	synced  []string
}

func (f *fakeSync) SyncConnection(_ context.Context, connID string) (*syncer.Result, error) {
	f.synced = append(f.synced, connID)
	if f.connErr != nil {
		return &syncer.Result{ConnectionID: connID, Skipped: true}, f.connErr
	}
	return &syncer.Result{ConnectionID: connID, Campaigns: 2, Rows: 14}, nil
}

func (f *fakeSync) SyncWorkspace(_ context.Context, workspaceID string) (*syncer.SyncReport, error) {
	return &syncer.SyncReport{WorkspaceID: workspaceID}, nil
}

type fakeCampaigns struct {
	list       []domain.Campaign
	total      int
	lastFilter campaign.ListFilter
}

func (f *fakeCampaigns) Get(_ context.Context, workspaceID, id string) (*domain.Campaign, error) {
	for i := range f.list {
		if f.list[i].ID == id && f.list[i].WorkspaceID == workspaceID {
			return &f.list[i], nil
		}
	}
	return nil, campaign.ErrNotFound
}

func (f *fakeCampaigns) List(_ context.Context, workspaceID string, filter campaign.ListFilter) ([]domain.Campaign, int, error) {
	f.lastFilter = filter
	return f.list, f.total, nil
}

type fakeAnalytics struct {
	lastRange     domain.DateRange
	lastPlatforms []domain.Platform
}

func (f *fakeAnalytics) Dashboard(_ context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) (*analytics.Dashboard, error) {
	f.lastRange = r
	f.lastPlatforms = platforms
	d := &analytics.Dashboard{Filter: platforms, GeneratedAt: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)}
	d.Range = r
	d.Totals.Spend = 123.45
	return d, nil
}

func (f *fakeAnalytics) CampaignSeries(_ context.Context, workspaceID, campaignID string, r domain.DateRange) (*analytics.CampaignSeries, error) {
	f.lastRange = r
	return &analytics.CampaignSeries{CampaignID: campaignID, Range: r}, nil
}

type fakeInsights struct {
	items []domain.Insight
}

func (f *fakeInsights) Generate(_ context.Context, workspaceID string, r domain.DateRange) ([]domain.Insight, error) {
	return f.items, nil
}

func (f *fakeInsights) List(_ context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error) {
	var out []domain.Insight
	for _, in := range f.items {
		if status == "" || in.Status == status {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeInsights) UpdateStatus(_ context.Context, workspaceID, id string, status domain.InsightStatus) (*domain.Insight, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = status
			return &f.items[i], nil
		}
	}
	return nil, nil
}

type fakeReports struct {
	file     *report.File
	emailErr error
	lastIn   report.GenerateInput
	exported domain.ReportFormat
}

func (f *fakeReports) Generate(_ context.Context, userID, workspaceID string, in report.GenerateInput) (*domain.Report, error) {
	if !in.Format.Valid() {
		return nil, report.ErrUnsupportedFormat
	}
	f.lastIn = in
	return &domain.Report{ID: "rep-1", WorkspaceID: workspaceID, Name: in.Name, Format: in.Format, CreatedBy: userID}, nil
}

func (f *fakeReports) List(_ context.Context, workspaceID string) ([]domain.Report, error) {
	return nil, nil
}

func (f *fakeReports) Download(_ context.Context, workspaceID, reportID string) (*report.File, error) {
	if reportID != "rep-1" {
		return nil, report.ErrNotFound
	}
	return f.file, nil
}

func (f *fakeReports) Email(_ context.Context, workspaceID, reportID string, recipients []string) error {
	return f.emailErr
}

func (f *fakeReports) Export(_ context.Context, workspaceID string, format domain.ReportFormat, r domain.DateRange) (*report.File, error) {
	f.exported = format
	return &report.File{Filename: "export." + format.Extension(), ContentType: format.ContentType(), Data: []byte("section,kpi\n")}, nil
}
