package report

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

type memRepo struct {
	mu        sync.Mutex
	reports   map[string]domain.Report
	blobs     map[string][]byte
	createErr error
	blobErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{reports: map[string]domain.Report{}, blobs: map[string][]byte{}}
}

func (m *memRepo) Create(_ context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.reports[r.ID] = *r
	return nil
}

func (m *memRepo) CreateWithBlob(_ context.Context, r *domain.Report, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.blobErr != nil {
		return m.blobErr
	}
	m.reports[r.ID] = *r
	m.blobs[r.ID] = data
	return nil
}

func (m *memRepo) Get(_ context.Context, workspaceID, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memRepo) List(_ context.Context, workspaceID string) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Report
	for _, r := range m.reports {
		if r.WorkspaceID == workspaceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) Blob(_ context.Context, reportID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

type fakePeriods struct {
	data  Data
	calls int
}

func (f *fakePeriods) Period(_ context.Context, _ string, r domain.DateRange) (analytics.Summary, analytics.Comparison, error) {
	f.calls++
	s := f.data.Summary
	s.Range = r
	s.TopCampaigns = f.data.Campaigns
	return s, f.data.Comparison, nil
}

type staticInsights []domain.Insight

func (s staticInsights) List(context.Context, string, domain.InsightStatus) ([]domain.Insight, error) {
	return s, nil
}

type staticWorkspaces map[string]*domain.Workspace

func (s staticWorkspaces) GetByID(_ context.Context, id string) (*domain.Workspace, error) {
	ws, ok := s[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ws, nil
}

type memArchive struct {
	objects map[string][]byte
}

func (a *memArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	a.objects[key] = data
	return nil
}

func (a *memArchive) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := a.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (a *memArchive) Delete(_ context.Context, key string) error {
	delete(a.objects, key)
	return nil
}

func (a *memArchive) PresignURL(_ context.Context, key, filename string, ttl time.Duration) (string, error) {
	return "https://s3.test/" + key + "?name=" + filename + "&ttl=" + ttl.String(), nil
}

type fakeMailer struct {
	sent []Message
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func newTestService(t *testing.T, opts Options) (*Service, *memRepo) {
	t.Helper()
	d := sampleData()
	repo := newMemRepo()
	ws := d.Workspace
	svc := NewService(repo, &fakePeriods{data: d}, staticInsights(d.Insights),
		staticWorkspaces{"ws-1": &ws}, renderers(t), opts)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestGenerateStoresBlobWithoutArchive(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, Options{})

	r, err := svc.Generate(ctx, "user-1", "ws-1", GenerateInput{Format: domain.FormatCSV, Range: testRange})
	require.NoError(t, err)

	assert.Equal(t, "Performance 2024-03-01..2024-03-03", r.Name)
	assert.Equal(t, domain.ReportReady, r.Status)
	assert.Equal(t, "user-1", r.CreatedBy)
	assert.Empty(t, r.StorageKey)
	require.Contains(t, repo.blobs, r.ID)
	assert.Equal(t, r.SizeBytes, int64(len(repo.blobs[r.ID])))

	f, err := svc.Download(ctx, "ws-1", r.ID)
	require.NoError(t, err)
	assert.Empty(t, f.URL)
	assert.Equal(t, "adlens-20240301-20240303.csv", f.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", f.ContentType)
	assert.Equal(t, repo.blobs[r.ID], f.Data)

	list, err := svc.List(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGenerateArchivesToObjectStore(t *testing.T) {
	ctx := context.Background()
	archive := &memArchive{objects: map[string][]byte{}}
	svc, repo := newTestService(t, Options{Archive: archive, LinkTTL: 5 * time.Minute})

	r, err := svc.Generate(ctx, "user-1", "ws-1", GenerateInput{Name: "March", Format: domain.FormatPDF, Range: testRange})
	require.NoError(t, err)

	assert.Equal(t, "reports/ws-1/"+r.ID+".pdf", r.StorageKey)
	assert.Contains(t, archive.objects, r.StorageKey)
	assert.Empty(t, repo.blobs)

	f, err := svc.Download(ctx, "ws-1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/"+r.StorageKey+"?name=adlens-20240301-20240303.pdf&ttl=5m0s", f.URL)
	assert.Nil(t, f.Data)
}

func TestGenerateLeavesNothingWhenBlobFails(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, Options{})
	repo.blobErr = errors.New("disk full")

	_, err := svc.Generate(ctx, "user-1", "ws-1", GenerateInput{Format: domain.FormatCSV, Range: testRange})
	require.Error(t, err)

	list, err := svc.List(ctx, "ws-1")
	require.NoError(t, err)
	assert.Empty(t, list, "no ready report without bytes")
	assert.Empty(t, repo.blobs)
}

func TestGenerateRemovesArchivedObjectWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	archive := &memArchive{objects: map[string][]byte{}}
	svc, repo := newTestService(t, Options{Archive: archive})
	repo.createErr = errors.New("connection reset")

	_, err := svc.Generate(ctx, "user-1", "ws-1", GenerateInput{Format: domain.FormatPDF, Range: testRange})
	require.Error(t, err)
	assert.Empty(t, archive.objects)
	assert.Empty(t, repo.reports)
}

func TestGenerateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	_, err := svc.Generate(ctx, "u", "ws-1", GenerateInput{Format: "docx", Range: testRange})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	inverted := domain.DateRange{From: testRange.To, To: testRange.From}
	_, err = svc.Generate(ctx, "u", "ws-1", GenerateInput{Format: domain.FormatHTML, Range: inverted})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Generate(ctx, "u", "missing", GenerateInput{Format: domain.FormatHTML, Range: testRange})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportDoesNotStore(t *testing.T) {
	svc, repo := newTestService(t, Options{})

	f, err := svc.Export(context.Background(), "ws-1", domain.FormatXLSX, testRange)
	require.NoError(t, err)
	assert.Equal(t, "adlens-20240301-20240303.xlsx", f.Filename)
	assert.NotEmpty(t, f.Data)
	assert.Empty(t, repo.reports)
	assert.Empty(t, repo.blobs)
}

func TestDownloadWrongWorkspace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})
	r, err := svc.Generate(ctx, "u", "ws-1", GenerateInput{Format: domain.FormatHTML, Range: testRange})
	require.NoError(t, err)

	_, err = svc.Download(ctx, "ws-2", r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmail(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newTestService(t, Options{})
	assert.ErrorIs(t, disabled.Email(ctx, "ws-1", "r", []string{"a@example.com"}), ErrMailerDisabled)

	mailer := &fakeMailer{}
	svc, _ := newTestService(t, Options{Mailer: mailer})
	r, err := svc.Generate(ctx, "u", "ws-1", GenerateInput{Name: "Q1 <final>", Format: domain.FormatCSV, Range: testRange})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Email(ctx, "ws-1", r.ID, nil), ErrInvalidInput)
	require.NoError(t, svc.Email(ctx, "ws-1", r.ID, []string{"ops@example.com"}))

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Equal(t, "AdLens report: Q1 <final>", msg.Subject)
	assert.Contains(t, msg.HTML, "Q1 &lt;final&gt;")
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "adlens-20240301-20240303.csv", msg.Attachment.Filename)
	assert.Equal(t, r.SizeBytes, int64(len(msg.Attachment.Data)))
}
