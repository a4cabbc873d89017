package authz_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/shared"
	_ "github.com/motora-erp/motora-erp/testing"
)

type stubProfiles struct {
	profile *authz.Profile
	err     error
}

func (s *stubProfiles) ProfileByUserID(ctx context.Context, userID string) (*authz.Profile, error) {
	return s.profile, s.err
}

type stubPermissions struct {
	sets map[string]authz.PermissionSet
	err  error
}

func (s *stubPermissions) PermissionSetByName(ctx context.Context, department string) (authz.PermissionSet, error) {
	if s.err != nil {
		return authz.PermissionSet{}, s.err
	}
	set, ok := s.sets[department]
	if !ok {
		return authz.PermissionSet{}, fmt.Errorf("%w: department %q", httpx.ErrNotFound, department)
	}
	return set, nil
}

type recordedDecision struct {
	kind    string
	granted bool
}

type stubObserver struct {
	decisions []recordedDecision
}

func (s *stubObserver) ObserveDecision(kind string, granted bool) {
	s.decisions = append(s.decisions, recordedDecision{kind: kind, granted: granted})
}

func sessionRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func passHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRouteWithoutSession(t *testing.T) {
	mw := authz.Middleware{Profiles: &stubProfiles{}, Permissions: &stubPermissions{}}

	req := httptest.NewRequest(http.MethodGet, "/ventas", nil)
	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.False(t, called)
}

func TestRequireRouteGranted(t *testing.T) {
	observer := &stubObserver{}
	mw := authz.Middleware{
		Profiles: &stubProfiles{profile: &authz.Profile{Role: "comercial", Department: "Ventas"}},
		Permissions: &stubPermissions{sets: map[string]authz.PermissionSet{
			"Ventas": authz.NewPermissionSet([]authz.DepartmentPermission{
				{PermissionType: authz.PermTypeRouteAccess, PermissionValue: "/ventas"},
			}),
		}},
		Observer: observer,
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
	require.Len(t, observer.decisions, 1)
	assert.Equal(t, recordedDecision{kind: "route", granted: true}, observer.decisions[0])
}

func TestRequireRouteDeniedByGrants(t *testing.T) {
	mw := authz.Middleware{
		Profiles: &stubProfiles{profile: &authz.Profile{Role: "comercial", Department: "Ventas"}},
		Permissions: &stubPermissions{sets: map[string]authz.PermissionSet{
			"Ventas": authz.NewPermissionSet(nil),
		}},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, called)
}

func TestRequireRouteElevatedBypassesGrants(t *testing.T) {
	// No permission rows at all, yet the elevated caller passes.
	mw := authz.Middleware{
		Profiles:    &stubProfiles{profile: &authz.Profile{Role: "admin"}},
		Permissions: &stubPermissions{},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

func TestRequireRouteUnknownDepartmentFailsClosed(t *testing.T) {
	mw := authz.Middleware{
		Profiles:    &stubProfiles{profile: &authz.Profile{Role: "comercial", Department: "Fantasma"}},
		Permissions: &stubPermissions{sets: map[string]authz.PermissionSet{}},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, called)
}

func TestRequireRouteStoreFailureIsNotADenial(t *testing.T) {
	mw := authz.Middleware{
		Profiles:    &stubProfiles{profile: &authz.Profile{Role: "comercial", Department: "Ventas"}},
		Permissions: &stubPermissions{err: fmt.Errorf("%w: permissions: connection refused", httpx.ErrStore)},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.False(t, called)
}

func TestRequireRouteProfileStoreFailure(t *testing.T) {
	mw := authz.Middleware{
		Profiles:    &stubProfiles{err: fmt.Errorf("%w: profiles: connection refused", httpx.ErrStore)},
		Permissions: &stubPermissions{},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireRoute("/ventas")(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.False(t, called)
}

func TestRequireActionNoDepartment(t *testing.T) {
	mw := authz.Middleware{
		Profiles:    &stubProfiles{profile: &authz.Profile{Role: "comercial"}},
		Permissions: &stubPermissions{},
	}

	res := httptest.NewRecorder()
	called := false
	mw.RequireAction(authz.ActionApproveSales)(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.False(t, called)
}

func TestRequireElevated(t *testing.T) {
	t.Run("elevated passes", func(t *testing.T) {
		mw := authz.Middleware{Profiles: &stubProfiles{profile: &authz.Profile{Department: "Dirección"}}}
		res := httptest.NewRecorder()
		called := false
		mw.RequireElevated()(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))
		assert.Equal(t, http.StatusOK, res.Code)
		assert.True(t, called)
	})

	t.Run("regular caller rejected", func(t *testing.T) {
		mw := authz.Middleware{Profiles: &stubProfiles{profile: &authz.Profile{Role: "comercial", Department: "Ventas"}}}
		res := httptest.NewRecorder()
		called := false
		mw.RequireElevated()(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))
		assert.Equal(t, http.StatusForbidden, res.Code)
		assert.False(t, called)
	})

	t.Run("missing profile rejected", func(t *testing.T) {
		mw := authz.Middleware{Profiles: &stubProfiles{}}
		res := httptest.NewRecorder()
		called := false
		mw.RequireElevated()(passHandler(&called)).ServeHTTP(res, sessionRequest(t, "user-1"))
		assert.Equal(t, http.StatusForbidden, res.Code)
		assert.False(t, called)
	})
}
