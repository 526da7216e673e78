package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/syncer"
)

// ListConnections returns the workspace's platform connections. Tokens are
// never serialised.
func (h *Handlers) ListConnections(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	conns, err := h.svc.Connections.List(r.Context(), ws.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if conns == nil {
		conns = []domain.PlatformConnection{}
	}
	httputil.OK(w, map[string]interface{}{"connections": conns})
}

// BeginConnection starts the provider consent flow for the platform named
// by {id} and returns the URL to send the browser to.
//
//	POST /api/workspaces/{wsID}/connections/{id}
func (h *Handlers) BeginConnection(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	p := domain.Platform(chi.URLParam(r, "id"))
	if !p.Valid() {
		httputil.BadRequest(w, "unknown platform "+string(p))
		return
	}
	authURL, conn, err := h.svc.Connections.Begin(r.Context(), sessionUserID(r), ws.ID, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"auth_url":      authURL,
		"connection_id": conn.ID,
	})
}

// DeleteConnection disconnects a platform and wipes its tokens.
//
//	DELETE /api/workspaces/{wsID}/connections/{id}
func (h *Handlers) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	if err := h.svc.Connections.Disconnect(r.Context(), ws.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// SyncConnection runs one connection's sync now.
//
//	POST /api/workspaces/{wsID}/connections/{id}/sync
func (h *Handlers) SyncConnection(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	conn, err := h.svc.Connections.Get(r.Context(), ws.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.svc.Sync.SyncConnection(r.Context(), conn.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// SyncWorkspace syncs every connected platform of the workspace.
//
//	POST /api/workspaces/{wsID}/sync
func (h *Handlers) SyncWorkspace(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r.Context())
	rep, err := h.svc.Sync.SyncWorkspace(r.Context(), ws.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rep.Results == nil {
		rep.Results = []syncer.Result{}
	}
	httputil.OK(w, rep)
}

// OAuthCallback completes a platform connection after the provider
// redirect and sends the browser back to the workspace's connections page.
// Only the signed-in user who began the authorization can complete it.
//
//	GET /oauth/{platform}/callback?state=&code=&error=
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	conn, err := h.svc.Connections.Complete(r.Context(), sessionUserID(r), q.Get("state"), q.Get("code"), q.Get("error"))
	if conn == nil {
		logger.Warn("oauth callback rejected", "platform", chi.URLParam(r, "platform"), "error", err)
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	target := "/workspaces/" + url.PathEscape(conn.WorkspaceID) + "/connections"
	v := url.Values{}
	switch {
	case err == nil:
		v.Set("connected", string(conn.Platform))
	case errors.Is(err, connection.ErrAuthorizationDenied):
		v.Set("error", "access_denied")
	default:
		logger.Warn("oauth callback failed", "connection_id", conn.ID, "platform", conn.Platform, "error", err)
		v.Set("error", "connection_failed")
	}
	http.Redirect(w, r, target+"?"+v.Encode(), http.StatusTemporaryRedirect)
}
