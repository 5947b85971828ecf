package metricsx_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/metricsx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsMatchedRoute(t *testing.T) {
	m := metricsx.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h := m.Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	expected := `
# HELP tabauth_http_requests_total HTTP requests by route, method and status
# TYPE tabauth_http_requests_total counter
tabauth_http_requests_total{method="GET",route="GET /me",status="401"} 1
tabauth_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tabauth_http_requests_total"))
}

func TestMiddleware_CatchAllIsUnmatched(t *testing.T) {
	m := metricsx.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	expected := `
# HELP tabauth_http_requests_total HTTP requests by route, method and status
# TYPE tabauth_http_requests_total counter
tabauth_http_requests_total{method="GET",route="GET /livez",status="200"} 1
tabauth_http_requests_total{method="GET",route="unmatched",status="404"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tabauth_http_requests_total"))
}

func TestRecordAuth(t *testing.T) {
	m := metricsx.New()
	m.RecordAuth("login", nil)
	m.RecordAuth("login", errors.New("bad password"))
	m.RecordAuth("login", errors.New("bad password"))

	expected := `
# HELP tabauth_auth_events_total Auth operations by operation and outcome
# TYPE tabauth_auth_events_total counter
tabauth_auth_events_total{op="login",outcome="failure"} 2
tabauth_auth_events_total{op="login",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tabauth_auth_events_total"))
}

func TestObserveJob(t *testing.T) {
	m := metricsx.New()
	m.ObserveJob(time.Millisecond, 30*time.Millisecond, nil)

	require.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "tabauth_hash_duration_seconds"))
	require.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "tabauth_hash_jobs_total"))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := metricsx.New()
	m.RecordAuth("signup", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `tabauth_auth_events_total{op="signup",outcome="success"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}
