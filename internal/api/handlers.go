package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/auth"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
)

// Services bundles the domain services behind the HTTP API.
type Services struct {
	Workspaces  WorkspaceService
	Connections ConnectionService
	Sync        SyncService
	Campaigns   CampaignService
	Analytics   AnalyticsService
	Insights    InsightService
	Reports     ReportService
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc Services
	now func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc Services) *Handlers {
	return &Handlers{svc: svc, now: time.Now}
}

type ctxKey int

const workspaceKey ctxKey = iota

func sessionUserID(r *http.Request) string {
	if s := auth.SessionFromContext(r.Context()); s != nil {
		return s.UserID
	}
	return ""
}

// currentWorkspace returns the workspace loaded by workspaceCtx.
func currentWorkspace(ctx context.Context) *domain.Workspace {
	ws, _ := ctx.Value(workspaceKey).(*domain.Workspace)
	return ws
}

// workspaceCtx loads {wsID} for the signed-in user. Workspaces owned by
// someone else are reported as not found.
func (h *Handlers) workspaceCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := sessionUserID(r)
		if uid == "" {
			httputil.Unauthorized(w)
			return
		}
		ws, err := h.svc.Workspaces.Get(r.Context(), uid, chi.URLParam(r, "wsID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), workspaceKey, ws)))
	})
}
