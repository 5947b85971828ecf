// Package metricsx owns the service's private Prometheus registry.
package metricsx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tabauth"

// Auth outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RouteUnmatched labels requests that reached no registered route.
const RouteUnmatched = "unmatched"

// Metrics holds the collectors recorded by the HTTP layer, the auth service
// and the hashing pool.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	durations    *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	hashJobs     *prometheus.CounterVec
	hashWait     prometheus.Histogram
	hashDuration prometheus.Histogram
}

// New builds Metrics on a fresh registry that also carries the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Auth operations by operation and outcome",
		}, []string{"op", "outcome"}),
		hashJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hash_jobs_total",
			Help:      "Password hashing jobs by outcome",
		}, []string{"outcome"}),
		hashWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hash_queue_wait_seconds",
			Help:      "Time hashing jobs spend queued",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hash_duration_seconds",
			Help:      "Time spent hashing or verifying a password",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	reg.MustRegister(m.requests, m.durations, m.authEvents, m.hashJobs, m.hashWait, m.hashDuration)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordAuth counts one auth operation.
func (m *Metrics) RecordAuth(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.authEvents.WithLabelValues(op, outcome).Inc()
}

// ObserveJob records a hashing pool job.
func (m *Metrics) ObserveJob(wait, run time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.hashJobs.WithLabelValues(outcome).Inc()
	m.hashWait.Observe(wait.Seconds())
	m.hashDuration.Observe(run.Seconds())
}

// Middleware records request counts and latency. It must wrap the ServeMux
// directly so that the matched pattern is visible once the mux returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		// "/" only ever names the not-found/405 fallback.
		route := r.Pattern
		if route == "" || route == "/" {
			route = RouteUnmatched
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.durations.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
