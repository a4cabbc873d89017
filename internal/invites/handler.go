package invites

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/motora-erp/motora-erp/internal/authn"
	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/profiles"
)

// ProfileResolver loads the caller's administered profile. A nil profile with
// a nil error means no row exists and the claims alone decide elevation.
type ProfileResolver interface {
	Get(ctx context.Context, userID string) (*profiles.Profile, error)
}

// Handler wires the invitation endpoint.
type Handler struct {
	logger    *slog.Logger
	guard     *authn.Guard
	resolver  ProfileResolver
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, guard *authn.Guard, resolver ProfileResolver, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		guard:     guard,
		resolver:  resolver,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers invitation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleInvite)
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	identity, authErr := h.guard.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if authErr != nil {
		httpx.Problem(w, authErr.Status, "Unauthorized", authErr.Message)
		return
	}

	profile, err := h.resolver.Get(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("resolve inviter profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !authz.IsElevated(profile.Authz(), identity.Metadata) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions to invite users")
		return
	}

	var req InviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	invited, err := h.service.Invite(r.Context(), identity.UserID, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyInvited) {
			httpx.Problem(w, http.StatusConflict, "Conflict", "an invitation for this address was already processed")
			return
		}
		h.logger.Error("invite user", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "invitation sent",
		"user":    invited,
	})
}
