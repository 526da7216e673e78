package api

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/report"
)

// ListReports returns the workspace's stored reports.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	list, err := h.svc.Reports.List(r.Context(), ws.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Report{}
	}
	httputil.OK(w, map[string]interface{}{"reports": list})
}

type createReportRequest struct {
	Name   string              `json:"name"`
	Format domain.ReportFormat `json:"format"`
	From   string              `json:"from"`
	To     string              `json:"to"`
}

// CreateReport renders and stores a report.
//
//	POST /api/workspaces/{wsID}/reports
func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	rng, err := parseDateRange(req.From, req.To, h.now())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	ws := currentWorkspace(r.Context())
	rep, err := h.svc.Reports.Generate(r.Context(), sessionUserID(r), ws.ID, report.GenerateInput{
		Name:   req.Name,
		Format: domain.ReportFormat(strings.ToLower(string(req.Format))),
		Range:  rng,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, rep)
}

// DownloadReport redirects to a presigned object URL when the report is
// archived, otherwise streams the stored bytes.
//
//	GET /api/workspaces/{wsID}/reports/{reportID}/download
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	f, err := h.svc.Reports.Download(r.Context(), ws.ID, chi.URLParam(r, "reportID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if f.URL != "" {
		http.Redirect(w, r, f.URL, http.StatusFound)
		return
	}
	writeFile(w, f)
}

type emailReportRequest struct {
	Recipients []string `json:"recipients"`
}

// EmailReport sends a stored report as an attachment.
//
//	POST /api/workspaces/{wsID}/reports/{reportID}/email
func (h *Handlers) EmailReport(w http.ResponseWriter, r *http.Request) {
	var req emailReportRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	ws := currentWorkspace(r.Context())
	id := chi.URLParam(r, "reportID")
	if err := h.svc.Reports.Email(r.Context(), ws.ID, id, req.Recipients); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Accepted(w, map[string]interface{}{
		"status":     "sent",
		"report_id":  id,
		"recipients": len(req.Recipients),
	})
}

// Export renders the range in the requested format without storing it.
//
//	GET /api/workspaces/{wsID}/export?format=&from=&to=
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	format := domain.ReportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = domain.FormatCSV
	}
	rng, err := h.queryRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	f, err := h.svc.Reports.Export(r.Context(), ws.ID, format, rng)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeFile(w, f)
}

func writeFile(w http.ResponseWriter, f *report.File) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Data); err != nil {
		logger.Warn("report write failed", "filename", f.Filename, "error", err)
	}
}
