package http

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/pkg/errx"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/metricsx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
	"github.com/aussiebroadwan/tabauth/pkg/workerx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	filters      httpx.Filters
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	pool    *workerx.Pool
	metrics *metricsx.Metrics

	AuthService *service.AuthService

	// routes maps a path to its registered methods so unmatched methods can
	// be told apart from unmatched paths.
	routes map[string][]string
}

func NewRouter(
	filters httpx.Filters,
	buildVersion string,
	st store.Store,
	pool *workerx.Pool,
	metrics *metricsx.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		filters:      filters,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		pool:         pool,
		metrics:      metrics,
		logger:       logger,
		routes:       map[string][]string{},
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if metrics != nil {
		// Innermost, so the matched pattern is visible to it.
		r.middlewares = append(r.middlewares, metrics.Middleware)
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUser()
	r.registerSystem()

	r.Mux.HandleFunc("/", r.fallback)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) handle(method, path string, h http.Handler) {
	r.Mux.Handle(method+" "+path, h)
	r.routes[path] = append(r.routes[path], method)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Service: r.AuthService}

	r.handle(http.MethodPost, "/signup", httpx.Chain(http.HandlerFunc(h.Signup),
		r.filters.RealmFilter(),
		r.filters.BasicCredentialsFilter(),
	))
	r.handle(http.MethodPost, "/login", httpx.Chain(http.HandlerFunc(h.Login),
		r.filters.RealmFilter(),
		r.filters.BasicCredentialsFilter(),
	))
}

func (r *Router) registerUser() {
	h := &UserHandler{Service: r.AuthService}

	r.handle(http.MethodGet, "/me", httpx.Chain(http.HandlerFunc(h.Me),
		r.filters.RealmFilter(),
		r.filters.BearerFilter(),
	))
	r.handle(http.MethodDelete, "/me", httpx.Chain(http.HandlerFunc(h.Delete),
		r.filters.RealmFilter(),
		r.filters.BearerFilter(),
	))
	r.handle(http.MethodPost, "/me/profile", httpx.Chain(http.HandlerFunc(h.UpdateProfile),
		r.filters.RealmFilter(),
		r.filters.BearerFilter(),
	))
}

func (r *Router) registerSystem() {
	r.handle(http.MethodGet, "/health", HealthHandler(r.AuthService))
	r.handle(http.MethodGet, "/livez", LivezHandler(r.startTime, r.buildVersion))
	r.handle(http.MethodGet, "/readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.pool))
	if r.metrics != nil {
		r.handle(http.MethodGet, "/metrics", r.metrics.Handler())
	}
}

// fallback renders unmatched requests through the error taxonomy.
func (r *Router) fallback(w http.ResponseWriter, req *http.Request) {
	methods, ok := r.routes[req.URL.Path]
	if !ok {
		httpx.WriteError(w, req, errx.New(errx.KindPathMismatch, "ROUTE_NOT_FOUND", "no route for "+req.URL.Path))
		return
	}

	allow := append([]string(nil), methods...)
	sort.Strings(allow)
	w.Header().Set("Allow", strings.Join(allow, ", "))
	httpx.WriteError(w, req, errx.New(errx.KindMethodNotAllowed, "METHOD_NOT_ALLOWED", req.Method+" "+req.URL.Path))
}
