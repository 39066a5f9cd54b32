package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowscript/pkg/observability"
)

// Metrics holds the server's Prometheus collectors. It implements the
// observability hooks so library code reports through it.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	CompilesTotal   *prometheus.CounterVec
	CompileSteps    prometheus.Histogram
	CompileDuration prometheus.Histogram

	LibraryOpsTotal   *prometheus.CounterVec
	LibraryOpDuration *prometheus.HistogramVec

	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	RunsInFlight prometheus.Gauge

	CacheRequestsTotal *prometheus.CounterVec
	CacheBytesWritten  *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg. A nil reg creates a fresh
// registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{registry: reg}
	m.initHTTPMetrics()
	m.initCompileMetrics()
	m.initLibraryMetrics()
	m.initRunMetrics()
	m.initCacheMetrics()
	return m
}

func (m *Metrics) initHTTPMetrics() {
	m.HTTPRequestsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscript_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.HTTPRequestsInFlight = promauto.With(m.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscript_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
}

func (m *Metrics) initCompileMetrics() {
	m.CompilesTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_compiles_total",
			Help: "Total number of flow compilations",
		},
		[]string{"status"},
	)

	m.CompileSteps = promauto.With(m.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscript_compile_steps",
			Help:    "Number of nodes emitted per compiled script",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250},
		},
	)

	m.CompileDuration = promauto.With(m.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscript_compile_duration_seconds",
			Help:    "Flow compilation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)
}

func (m *Metrics) initLibraryMetrics() {
	m.LibraryOpsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_library_operations_total",
			Help: "Total number of script library operations",
		},
		[]string{"operation", "status"},
	)

	m.LibraryOpDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscript_library_operation_duration_seconds",
			Help:    "Script library operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
}

func (m *Metrics) initRunMetrics() {
	m.RunsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_runs_total",
			Help: "Total number of script runs by outcome",
		},
		[]string{"outcome"},
	)

	m.RunDuration = promauto.With(m.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowscript_run_duration_seconds",
			Help:    "Script run duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	m.RunsInFlight = promauto.With(m.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscript_runs_in_flight",
			Help: "Current number of running scripts",
		},
	)
}

func (m *Metrics) initCacheMetrics() {
	m.CacheRequestsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_cache_requests_total",
			Help: "Total number of diagram cache lookups",
		},
		[]string{"type", "result"},
	)

	m.CacheBytesWritten = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscript_cache_bytes_written_total",
			Help: "Bytes written to the diagram cache",
		},
		[]string{"type"},
	)
}

// Register installs m as the global observability hooks.
func (m *Metrics) Register() {
	observability.SetCompileHooks(m)
	observability.SetLibraryHooks(m)
	observability.SetRunHooks(m)
	observability.SetCacheHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// =============================================================================
// Observability hooks
// =============================================================================

func (m *Metrics) OnCompileStart(context.Context, int) {}

func (m *Metrics) OnCompileComplete(_ context.Context, steps int, d time.Duration, err error) {
	m.CompilesTotal.WithLabelValues(status(err)).Inc()
	m.CompileDuration.Observe(d.Seconds())
	if err == nil {
		m.CompileSteps.Observe(float64(steps))
	}
}

func (m *Metrics) OnLibraryOp(_ context.Context, op string, d time.Duration, err error) {
	m.LibraryOpsTotal.WithLabelValues(op, status(err)).Inc()
	m.LibraryOpDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) OnRunStart(context.Context, string, bool) {
	m.RunsInFlight.Inc()
}

// OnRunComplete labels the outcome "success", "failure" (the script ran and
// failed) or "error" (it could not be run).
func (m *Metrics) OnRunComplete(_ context.Context, _ string, success bool, d time.Duration, err error) {
	m.RunsInFlight.Dec()
	outcome := "failure"
	switch {
	case err != nil:
		outcome = "error"
	case success:
		outcome = "success"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytesWritten.WithLabelValues(keyType).Add(float64(size))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.CompileHooks = (*Metrics)(nil)
	_ observability.LibraryHooks = (*Metrics)(nil)
	_ observability.RunHooks     = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
)

// =============================================================================
// HTTP middleware
// =============================================================================

// middleware records request counts and latency labelled by chi route
// pattern, so ids in paths do not explode label cardinality.
func (m *Metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
