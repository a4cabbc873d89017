package authz

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/motora-erp/motora-erp/internal/platform/httpx"
)

// PermissionsHandler exposes the read-only feature-diagnostic surface:
// "what can department X do, and what is it missing".
type PermissionsHandler struct {
	logger      *slog.Logger
	permissions PermissionSource
	mw          Middleware
}

// NewPermissionsHandler constructs the handler.
func NewPermissionsHandler(logger *slog.Logger, permissions PermissionSource, mw Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, permissions: permissions, mw: mw}
}

// MountRoutes attaches the diagnostic routes. Elevated-only: the surface
// reveals the grant layout of every department.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Use(h.mw.RequireElevated())
	r.Get("/features", h.features)
	r.Get("/actions", h.actions)
}

type featureDiagnostic struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Granted            bool     `json:"granted"`
	MissingRoutes      []string `json:"missing_routes"`
	MissingPermissions []string `json:"missing_permissions"`
	Examples           []string `json:"examples"`
}

func (h *PermissionsHandler) features(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")

	// No department selected: report every feature as not yet granted, with
	// full requirement lists. That is a state, not an error.
	var set PermissionSet
	if department != "" {
		loaded, err := h.permissions.PermissionSetByName(r.Context(), department)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown department")
				return
			}
			h.logger.Error("diagnostics load permissions", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		set = loaded
	}

	access := CheckAllFeatures(set)
	out := make([]featureDiagnostic, 0, len(access))
	for _, fa := range access {
		out = append(out, featureDiagnostic{
			Name:               fa.Feature.Name,
			Description:        fa.Feature.Description,
			Granted:            fa.Result.Granted,
			MissingRoutes:      fa.Result.MissingRoutes,
			MissingPermissions: fa.Result.MissingPermissions,
			Examples:           fa.Feature.Examples,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"department": department,
		"features":   out,
	})
}

func (h *PermissionsHandler) actions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"actions": Actions(),
	})
}
