package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	return res.Body.String()
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/ventas", nil))
	require.Equal(t, http.StatusTeapot, res.Code)

	body := scrape(t, m)
	assert.Contains(t, body, "motora_http_requests_total")
	assert.Contains(t, body, `code="418"`)
}

func TestObserveDecision(t *testing.T) {
	m := NewMetrics()
	m.ObserveDecision("route", true)
	m.ObserveDecision("route", false)
	m.ObserveDecision("action", false)

	body := scrape(t, m)
	assert.Contains(t, body, `motora_authz_decisions_total{kind="route",outcome="granted"} 1`)
	assert.Contains(t, body, `motora_authz_decisions_total{kind="route",outcome="denied"} 1`)
	assert.Contains(t, body, `motora_authz_decisions_total{kind="action",outcome="denied"} 1`)
	assert.False(t, strings.Contains(body, `kind="action",outcome="granted"`))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDecision("route", true)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	res := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}
