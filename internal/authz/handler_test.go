package authz_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/shared"
)

type featurePayload struct {
	Department string `json:"department"`
	Features   []struct {
		Name               string   `json:"name"`
		Granted            bool     `json:"granted"`
		MissingRoutes      []string `json:"missing_routes"`
		MissingPermissions []string `json:"missing_permissions"`
	} `json:"features"`
}

func diagnosticsRequest(t *testing.T, handler *authz.PermissionsHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("admin-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	router := chi.NewRouter()
	router.Route("/permissions", handler.MountRoutes)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func newDiagnosticsHandler(permissions authz.PermissionSource) *authz.PermissionsHandler {
	mw := authz.Middleware{
		Profiles:    &stubProfiles{profile: &authz.Profile{Role: "admin"}},
		Permissions: permissions,
	}
	return authz.NewPermissionsHandler(slog.Default(), permissions, mw)
}

func TestFeatureDiagnosticsForDepartment(t *testing.T) {
	permissions := &stubPermissions{sets: map[string]authz.PermissionSet{
		"Calidad": authz.NewPermissionSet([]authz.DepartmentPermission{
			{PermissionType: authz.ActionValidateQuality, PermissionValue: "true"},
		}),
	}}
	handler := newDiagnosticsHandler(permissions)

	res := diagnosticsRequest(t, handler, "/permissions/features?department=Calidad")
	require.Equal(t, http.StatusOK, res.Code)

	var payload featurePayload
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "Calidad", payload.Department)
	require.NotEmpty(t, payload.Features)

	for _, feature := range payload.Features {
		if feature.Name != "Control de Calidad" {
			continue
		}
		assert.False(t, feature.Granted)
		assert.Equal(t, []string{"/calidad"}, feature.MissingRoutes)
		assert.Empty(t, feature.MissingPermissions)
		return
	}
	t.Fatal("Control de Calidad feature missing from diagnostics")
}

func TestFeatureDiagnosticsWithoutDepartment(t *testing.T) {
	handler := newDiagnosticsHandler(&stubPermissions{})

	res := diagnosticsRequest(t, handler, "/permissions/features")
	require.Equal(t, http.StatusOK, res.Code)

	var payload featurePayload
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Empty(t, payload.Department)
	require.Len(t, payload.Features, len(authz.Features()))
	for _, feature := range payload.Features {
		assert.Falsef(t, feature.Granted, "feature %q", feature.Name)
		assert.NotEmptyf(t, append(feature.MissingRoutes, feature.MissingPermissions...), "feature %q", feature.Name)
	}
}

func TestFeatureDiagnosticsUnknownDepartment(t *testing.T) {
	handler := newDiagnosticsHandler(&stubPermissions{sets: map[string]authz.PermissionSet{}})

	res := diagnosticsRequest(t, handler, "/permissions/features?department=Fantasma")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestFeatureDiagnosticsStoreFailure(t *testing.T) {
	handler := newDiagnosticsHandler(&stubPermissions{err: fmt.Errorf("%w: permissions: connection refused", httpx.ErrStore)})

	res := diagnosticsRequest(t, handler, "/permissions/features?department=Calidad")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestActionsListing(t *testing.T) {
	handler := newDiagnosticsHandler(&stubPermissions{})

	res := diagnosticsRequest(t, handler, "/permissions/actions")
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Actions []string `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Contains(t, payload.Actions, authz.ActionValidateQuality)
	assert.Contains(t, payload.Actions, authz.ActionManageUsers)
}
