package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/adlens/internal/observability"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouteOptions configures SetupRoutes.
type RouteOptions struct {
	AllowedOrigins []string
	Health         *HealthChecker
	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler
}

// SetupRoutes configures all API routes. authn guards everything under /api.
func SetupRoutes(h *Handlers, authn Authenticator, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	// Credentials are allowed so the session cookie travels with API calls.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	hc := opts.Health
	if hc == nil {
		hc = NewHealthChecker(nil, nil, nil, "", 0)
	}
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Get("/auth/login", authn.HandleLogin)
	r.Get("/auth/callback", authn.HandleCallback)
	r.Get("/auth/logout", authn.HandleLogout)
	r.Get("/auth/user", authn.HandleUserInfo)

	// The Lax session cookie rides along on the provider's top-level
	// redirect; the callback must come from the user who began the flow.
	r.With(authn.RequireAuth).Get("/oauth/{platform}/callback", h.OAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Use(authn.RequireAuth)

		r.Get("/workspaces", h.ListWorkspaces)
		r.Post("/workspaces", h.CreateWorkspace)

		r.Route("/workspaces/{wsID}", func(r chi.Router) {
			r.Use(h.workspaceCtx)

			r.Get("/", h.GetWorkspace)
			r.Put("/", h.UpdateWorkspace)
			r.Delete("/", h.DeleteWorkspace)

			r.Get("/connections", h.ListConnections)
			r.Post("/connections/{id}", h.BeginConnection)
			r.Delete("/connections/{id}", h.DeleteConnection)
			r.Post("/connections/{id}/sync", h.SyncConnection)
			r.Post("/sync", h.SyncWorkspace)

			r.Get("/campaigns", h.ListCampaigns)
			r.Get("/campaigns/{campaignID}/metrics", h.CampaignMetrics)
			r.Get("/dashboard", h.Dashboard)

			r.Get("/insights", h.ListInsights)
			r.Post("/insights/generate", h.GenerateInsights)
			r.Patch("/insights/{insightID}", h.UpdateInsight)

			r.Get("/reports", h.ListReports)
			r.Post("/reports", h.CreateReport)
			r.Get("/reports/{reportID}/download", h.DownloadReport)
			r.Post("/reports/{reportID}/email", h.EmailReport)
			r.Get("/export", h.Export)
		})
	})

	return r
}
