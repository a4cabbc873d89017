package departments

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/shared"
)

// Auditor records administrative mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Handler wires the admin CRUD endpoints for departments and grants.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     Auditor
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit Auditor, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		audit:     audit,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers department routes. All of them are elevated-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.mw.RequireElevated())
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Get("/{id}/permissions", h.listPermissions)
	r.Put("/{id}/permissions", h.replacePermissions)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	departments, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list departments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"departments": departments})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	department, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, department)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	department, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create department", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "department.created", department.ID, map[string]any{"name": department.Name})
	httpx.JSON(w, http.StatusCreated, department)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	var req UpdateDepartmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	department, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update department", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "department.updated", department.ID, map[string]any{"name": department.Name})
	httpx.JSON(w, http.StatusOK, department)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	perms, err := h.service.Permissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []authz.DepartmentPermission{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

type replaceGrantsRequest struct {
	Grants []GrantInput `json:"grants" validate:"dive"`
}

func (h *Handler) replacePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}
	var req replaceGrantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ReplaceGrants(r.Context(), id, req.Grants); err != nil {
		h.logger.Error("replace grants", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "department.grants_replaced", id, map[string]any{"grants": len(req.Grants)})
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "grants replaced"})
}

func (h *Handler) departmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid department id")
		return 0, false
	}
	return id, true
}

func (h *Handler) record(r *http.Request, action string, entityID int64, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "department",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}
