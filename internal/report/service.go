package report

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/service/analytics"
)

// Periods aggregates a full reporting period.
type Periods interface {
	Period(ctx context.Context, workspaceID string, r domain.DateRange) (analytics.Summary, analytics.Comparison, error)
}

// Insights lists stored insights for inclusion in reports.
type Insights interface {
	List(ctx context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error)
}

// Workspaces resolves the workspace a report belongs to.
type Workspaces interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
}

// Options configures storage and delivery. Archive and Mailer are optional.
type Options struct {
	Archive Archive
	Mailer  Mailer
	LinkTTL time.Duration
}

// GenerateInput describes a report to create.
type GenerateInput struct {
	Name   string              `json:"name"`
	Format domain.ReportFormat `json:"format"`
	Range  domain.DateRange    `json:"range"`
}

// File is a rendered report ready to send to a client. When URL is set
// the bytes live in object storage and Data is empty.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
	URL         string
}

// Service generates, stores and delivers reports.
type Service struct {
	repo       Repository
	periods    Periods
	insights   Insights
	workspaces Workspaces
	renderers  Renderers
	archive    Archive
	mailer     Mailer
	linkTTL    time.Duration
	now        func() time.Time
}

// NewService creates a report service.
func NewService(repo Repository, periods Periods, insights Insights, workspaces Workspaces, renderers Renderers, opts Options) *Service {
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 15 * time.Minute
	}
	return &Service{
		repo:       repo,
		periods:    periods,
		insights:   insights,
		workspaces: workspaces,
		renderers:  renderers,
		archive:    opts.Archive,
		mailer:     opts.Mailer,
		linkTTL:    opts.LinkTTL,
		now:        time.Now,
	}
}

// Generate renders a report, stores its bytes and records it.
func (s *Service) Generate(ctx context.Context, userID, workspaceID string, in GenerateInput) (*domain.Report, error) {
	renderer, err := s.renderers.Get(in.Format)
	if err != nil {
		return nil, err
	}
	if err := in.Range.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Performance " + in.Range.String()
	}
	if len(name) > 200 {
		return nil, fmt.Errorf("%w: name too long", ErrInvalidInput)
	}

	data, err := s.build(ctx, workspaceID, in.Range)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(*data)
	if err != nil {
		return nil, err
	}

	r := &domain.Report{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		Format:      in.Format,
		From:        in.Range.From,
		To:          in.Range.To,
		Status:      domain.ReportReady,
		SizeBytes:   int64(len(body)),
		CreatedBy:   userID,
		CreatedAt:   data.GeneratedAt,
	}

	if s.archive == nil {
		if err := s.repo.CreateWithBlob(ctx, r, body); err != nil {
			return nil, err
		}
	} else {
		r.StorageKey = archiveKey(s.archive, r)
		if err := s.archive.Put(ctx, r.StorageKey, body, in.Format.ContentType()); err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, r); err != nil {
			if delErr := s.archive.Delete(context.WithoutCancel(ctx), r.StorageKey); delErr != nil {
				logger.Warn("failed to remove orphaned report object", "key", r.StorageKey, "error", delErr)
			}
			return nil, err
		}
	}

	observability.RecordReport(string(in.Format))
	logger.Info("report generated", "workspace_id", workspaceID, "report_id", r.ID,
		"format", in.Format, "bytes", r.SizeBytes, "archived", r.StorageKey != "")
	return r, nil
}

// Export renders a report without storing it.
func (s *Service) Export(ctx context.Context, workspaceID string, format domain.ReportFormat, r domain.DateRange) (*File, error) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	data, err := s.build(ctx, workspaceID, r)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(*data)
	if err != nil {
		return nil, err
	}
	observability.RecordReport(string(format))
	tmp := domain.Report{Format: format, From: r.From, To: r.To}
	return &File{Filename: tmp.Filename(), ContentType: format.ContentType(), Data: body}, nil
}

// Download returns a stored report, as a presigned link when it lives in
// object storage.
func (s *Service) Download(ctx context.Context, workspaceID, reportID string) (*File, error) {
	r, err := s.repo.Get(ctx, workspaceID, reportID)
	if err != nil {
		return nil, err
	}
	f := &File{Filename: r.Filename(), ContentType: r.Format.ContentType()}
	if r.StorageKey != "" && s.archive != nil {
		f.URL, err = s.archive.PresignURL(ctx, r.StorageKey, f.Filename, s.linkTTL)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	f.Data, err = s.bytes(ctx, r)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Email sends a stored report as an attachment.
func (s *Service) Email(ctx context.Context, workspaceID, reportID string, recipients []string) error {
	if s.mailer == nil {
		return ErrMailerDisabled
	}
	to, err := ValidateRecipients(recipients)
	if err != nil {
		return err
	}
	r, err := s.repo.Get(ctx, workspaceID, reportID)
	if err != nil {
		return err
	}
	body, err := s.bytes(ctx, r)
	if err != nil {
		return err
	}
	period := r.From.Format(domain.DateLayout) + " to " + r.To.Format(domain.DateLayout)
	msg := Message{
		To:      to,
		Subject: "AdLens report: " + r.Name,
		Text:    fmt.Sprintf("Your AdLens report %q for %s is attached.\r\n", r.Name, period),
		HTML:    fmt.Sprintf("<p>Your AdLens report <strong>%s</strong> for %s is attached.</p>", html.EscapeString(r.Name), period),
		Attachment: &Attachment{
			Filename:    r.Filename(),
			ContentType: r.Format.ContentType(),
			Data:        body,
		},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	logger.Info("report emailed", "workspace_id", workspaceID, "report_id", reportID, "recipients", len(to))
	return nil
}

// List returns the workspace's reports, newest first.
func (s *Service) List(ctx context.Context, workspaceID string) ([]domain.Report, error) {
	return s.repo.List(ctx, workspaceID)
}

func (s *Service) build(ctx context.Context, workspaceID string, r domain.DateRange) (*Data, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	summary, cmp, err := s.periods.Period(ctx, workspaceID, r)
	if err != nil {
		return nil, fmt.Errorf("aggregate report period: %w", err)
	}
	var insights []domain.Insight
	if s.insights != nil {
		insights, err = s.insights.List(ctx, workspaceID, domain.InsightNew)
		if err != nil {
			return nil, fmt.Errorf("load insights: %w", err)
		}
	}
	return &Data{
		Workspace:   *ws,
		Range:       r,
		Summary:     summary,
		Comparison:  cmp,
		Campaigns:   summary.TopCampaigns,
		Insights:    insights,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *Service) bytes(ctx context.Context, r *domain.Report) ([]byte, error) {
	if r.StorageKey != "" {
		if s.archive == nil {
			return nil, errors.New("report is archived but no archive is configured")
		}
		return s.archive.Get(ctx, r.StorageKey)
	}
	return s.repo.Blob(ctx, r.ID)
}

// archiveKey uses the archive's own layout when it has one.
func archiveKey(a Archive, r *domain.Report) string {
	if k, ok := a.(interface{ Key(*domain.Report) string }); ok {
		return k.Key(r)
	}
	return "reports/" + r.WorkspaceID + "/" + r.ID + "." + r.Format.Extension()
}
