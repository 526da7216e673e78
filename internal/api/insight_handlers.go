package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
)

// ListInsights returns insights, optionally filtered by ?status=.
func (h *Handlers) ListInsights(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	status := domain.InsightStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httputil.BadRequest(w, "unknown insight status "+string(status))
		return
	}
	list, err := h.svc.Insights.List(r.Context(), ws.ID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Insight{}
	}
	httputil.OK(w, map[string]interface{}{"insights": list})
}

// GenerateInsights analyses the range and replaces the workspace's new insights.
//
//	POST /api/workspaces/{wsID}/insights/generate?from=&to=
func (h *Handlers) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	rng, err := h.queryRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	list, err := h.svc.Insights.Generate(r.Context(), ws.ID, rng)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Insight{}
	}
	httputil.Created(w, map[string]interface{}{
		"insights": list,
		"range":    rng.String(),
	})
}

type updateInsightRequest struct {
	Status domain.InsightStatus `json:"status"`
}

// UpdateInsight dismisses or applies an insight.
//
//	PATCH /api/workspaces/{wsID}/insights/{insightID}
func (h *Handlers) UpdateInsight(w http.ResponseWriter, r *http.Request) {
	var req updateInsightRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		httputil.BadRequest(w, "status must be new, dismissed or applied")
		return
	}
	ws := currentWorkspace(r.Context())
	ins, err := h.svc.Insights.UpdateStatus(r.Context(), ws.ID, chi.URLParam(r, "insightID"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, ins)
}
