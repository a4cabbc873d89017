package authz

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/shared"
)

// ProfileSource resolves the administered role/department for an account.
// A nil profile with a nil error means "no profile row"; the caller falls
// back to claim metadata.
type ProfileSource interface {
	ProfileByUserID(ctx context.Context, userID string) (*Profile, error)
}

// PermissionSource resolves a department's grant snapshot by display name.
type PermissionSource interface {
	PermissionSetByName(ctx context.Context, department string) (PermissionSet, error)
}

// DecisionObserver records evaluated decisions for metrics.
type DecisionObserver interface {
	ObserveDecision(kind string, granted bool)
}

// Middleware wires department authorization guards for HTTP handlers. It is
// the server twin of the client-side capability checks: same evaluator, same
// fail-closed semantics.
type Middleware struct {
	Profiles    ProfileSource
	Permissions PermissionSource
	Logger      *slog.Logger
	Observer    DecisionObserver
}

// RequireElevated admits only callers with override privilege.
func (m Middleware) RequireElevated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := m.currentProfile(w, r)
			if !ok {
				return
			}
			if !IsElevated(profile, ClaimMetadata{}) {
				m.observe("elevated", false)
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "caller lacks elevated privileges")
				return
			}
			m.observe("elevated", true)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoute admits callers whose department grants the exact route, or who
// hold elevated privilege.
func (m Middleware) RequireRoute(route string) func(http.Handler) http.Handler {
	return m.require("route", RouteCapability{Route: route})
}

// RequireAction admits callers whose department grants the action, or who
// hold elevated privilege.
func (m Middleware) RequireAction(action string) func(http.Handler) http.Handler {
	return m.require("action", ActionCapability{Action: action})
}

func (m Middleware) require(kind string, capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := m.currentProfile(w, r)
			if !ok {
				return
			}
			if IsElevated(profile, ClaimMetadata{}) {
				m.observe(kind, true)
				next.ServeHTTP(w, r)
				return
			}
			if profile == nil || profile.Department == "" {
				m.observe(kind, false)
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "no department assigned")
				return
			}
			set, err := m.Permissions.PermissionSetByName(r.Context(), profile.Department)
			if err != nil {
				if errors.Is(err, httpx.ErrNotFound) {
					// Unknown department means no grants: fail closed.
					m.observe(kind, false)
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "department has no grants")
					return
				}
				// A store failure is an outage, not a denial.
				if m.Logger != nil {
					m.Logger.Error("authz load permissions", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			granted := Evaluate(set, capability)
			m.observe(kind, granted)
			if !granted {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "department grants do not cover this capability")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentProfile resolves the session caller's profile. Writes the failure
// response and returns ok=false when the request must not proceed.
func (m Middleware) currentProfile(w http.ResponseWriter, r *http.Request) (*Profile, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return nil, false
	}
	profile, err := m.Profiles.ProfileByUserID(r.Context(), sess.User())
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz load profile", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return nil, false
	}
	return profile, true
}

func (m Middleware) observe(kind string, granted bool) {
	if m.Observer != nil {
		m.Observer.ObserveDecision(kind, granted)
	}
}
