package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/motora-erp/motora-erp/internal/auth"
	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/departments"
	"github.com/motora-erp/motora-erp/internal/invites"
	"github.com/motora-erp/motora-erp/internal/observability"
	"github.com/motora-erp/motora-erp/internal/relay"
	"github.com/motora-erp/motora-erp/internal/shared"
	"github.com/motora-erp/motora-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	AuthHandler        *auth.Handler
	DepartmentsHandler *departments.Handler
	PermissionsHandler *authz.PermissionsHandler
	InvitesHandler     *invites.Handler
	RelayHandler       *relay.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Motora defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.DepartmentsHandler != nil {
		r.Route("/departments", params.DepartmentsHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.InvitesHandler != nil {
		r.Route("/invites", params.InvitesHandler.MountRoutes)
	}
	if params.RelayHandler != nil {
		r.Route("/relay", params.RelayHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
