package api

import (
	"context"
	"net/http"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/report"
	"github.com/ignite/adlens/internal/service/analytics"
	"github.com/ignite/adlens/internal/service/campaign"
	"github.com/ignite/adlens/internal/service/syncer"
	"github.com/ignite/adlens/internal/service/workspace"
)

// Authenticator serves the sign-in routes and guards /api.
type Authenticator interface {
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
	HandleLogout(w http.ResponseWriter, r *http.Request)
	HandleUserInfo(w http.ResponseWriter, r *http.Request)
	RequireAuth(next http.Handler) http.Handler
}

// WorkspaceService is the subset of workspace.Service the API uses.
type WorkspaceService interface {
	Create(ctx context.Context, ownerID string, in workspace.CreateInput) (*domain.Workspace, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Workspace, error)
	List(ctx context.Context, ownerID string) ([]domain.Workspace, error)
	Update(ctx context.Context, ownerID, id string, in workspace.UpdateInput) (*domain.Workspace, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ConnectionService is the subset of connection.Service the API uses.
type ConnectionService interface {
	Begin(ctx context.Context, userID, workspaceID string, p domain.Platform) (string, *domain.PlatformConnection, error)
	Complete(ctx context.Context, userID, rawState, code, providerErr string) (*domain.PlatformConnection, error)
	List(ctx context.Context, workspaceID string) ([]domain.PlatformConnection, error)
	Get(ctx context.Context, workspaceID, id string) (*domain.PlatformConnection, error)
	Disconnect(ctx context.Context, workspaceID, id string) error
}

// SyncService triggers on-demand syncs.
type SyncService interface {
	SyncConnection(ctx context.Context, connID string) (*syncer.Result, error)
	SyncWorkspace(ctx context.Context, workspaceID string) (*syncer.SyncReport, error)
}

// CampaignService lists synced campaigns.
type CampaignService interface {
	Get(ctx context.Context, workspaceID, id string) (*domain.Campaign, error)
	List(ctx context.Context, workspaceID string, f campaign.ListFilter) ([]domain.Campaign, int, error)
}

// AnalyticsService serves aggregated metrics.
type AnalyticsService interface {
	Dashboard(ctx context.Context, workspaceID string, r domain.DateRange, platforms []domain.Platform) (*analytics.Dashboard, error)
	CampaignSeries(ctx context.Context, workspaceID, campaignID string, r domain.DateRange) (*analytics.CampaignSeries, error)
}

// InsightService generates and triages insights.
type InsightService interface {
	Generate(ctx context.Context, workspaceID string, r domain.DateRange) ([]domain.Insight, error)
	List(ctx context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error)
	UpdateStatus(ctx context.Context, workspaceID, id string, status domain.InsightStatus) (*domain.Insight, error)
}

// ReportService generates, stores and delivers reports.
type ReportService interface {
	Generate(ctx context.Context, userID, workspaceID string, in report.GenerateInput) (*domain.Report, error)
	List(ctx context.Context, workspaceID string) ([]domain.Report, error)
	Download(ctx context.Context, workspaceID, reportID string) (*report.File, error)
	Email(ctx context.Context, workspaceID, reportID string, recipients []string) error
	Export(ctx context.Context, workspaceID string, format domain.ReportFormat, r domain.DateRange) (*report.File, error)
}
