package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/service/campaign"
)

// ListCampaigns returns a page of the workspace's campaigns.
//
//	GET /api/workspaces/{wsID}/campaigns?platform=&status=&q=&page=&limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	q := r.URL.Query()
	p := domain.Platform(q.Get("platform"))
	if p != "" && !p.Valid() {
		httputil.BadRequest(w, "unknown platform "+string(p))
		return
	}
	page := ParsePagination(r, 50, 200)
	list, total, err := h.svc.Campaigns.List(r.Context(), ws.ID, campaign.ListFilter{
		Platform: p,
		Status:   strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Search:   strings.TrimSpace(q.Get("q")),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Campaign{}
	}
	httputil.OK(w, NewPaginatedResponse(list, page, int64(total)))
}

// CampaignMetrics returns one campaign's daily series.
//
//	GET /api/workspaces/{wsID}/campaigns/{campaignID}/metrics?from=&to=
func (h *Handlers) CampaignMetrics(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	rng, err := h.queryRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	c, err := h.svc.Campaigns.Get(r.Context(), ws.ID, chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	series, err := h.svc.Analytics.CampaignSeries(r.Context(), ws.ID, c.ID, rng)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"campaign": c,
		"series":   series,
	})
}

// Dashboard returns the aggregated KPIs for the range.
//
//	GET /api/workspaces/{wsID}/dashboard?from=&to=&platforms=
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	rng, err := h.queryRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	platforms, err := parsePlatforms(r.URL.Query().Get("platforms"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	d, err := h.svc.Analytics.Dashboard(r.Context(), ws.ID, rng, platforms)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, d)
}
