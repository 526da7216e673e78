package api

import (
	"net/http"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/service/workspace"
)

// ListWorkspaces returns the caller's workspaces.
func (h *Handlers) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Workspaces.List(r.Context(), sessionUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []domain.Workspace{}
	}
	httputil.OK(w, map[string]interface{}{"workspaces": list})
}

// CreateWorkspace creates a workspace owned by the caller.
func (h *Handlers) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in workspace.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	ws, err := h.svc.Workspaces.Create(r.Context(), sessionUserID(r), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, ws)
}

// GetWorkspace returns the workspace loaded by the ownership middleware.
func (h *Handlers) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, currentWorkspace(r.Context()))
}

// UpdateWorkspace applies a partial update.
func (h *Handlers) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	var in workspace.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	ws := currentWorkspace(r.Context())
	updated, err := h.svc.Workspaces.Update(r.Context(), sessionUserID(r), ws.ID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, updated)
}

// DeleteWorkspace removes the workspace and everything synced into it.
func (h *Handlers) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	if err := h.svc.Workspaces.Delete(r.Context(), sessionUserID(r), ws.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
