package relay

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

// ProfileResolver loads the caller's administered profile.
type ProfileResolver interface {
	Get(ctx context.Context, userID string) (*profiles.Profile, error)
}

// Handler wires the relay endpoint.
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

// MountRoutes registers relay routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleRelay)
}

func (h *Handler) handleRelay(w http.ResponseWriter, r *http.Request) {
	identity, authErr := h.guard.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if authErr != nil {
		httpx.Problem(w, authErr.Status, "Unauthorized", authErr.Message)
		return
	}

	profile, err := h.resolver.Get(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("resolve relay caller", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !authz.IsElevated(profile.Authz(), identity.Metadata) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions to relay events")
		return
	}

	var req RelayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.Relay(r.Context(), req); err != nil {
		if errors.Is(err, ErrTargetNotAllowed) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("relay event", slog.String("event", req.Event), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusAccepted, map[string]any{"message": "event accepted"})
}
