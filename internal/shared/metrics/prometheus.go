package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	personsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persons_resolved_total",
			Help: "Total number of person registrations, by role and outcome",
		},
		[]string{"role", "outcome"}, // outcome: created, merged
	)

	relationshipsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationships_created_total",
			Help: "Total number of caregiver-patient relationships created",
		},
		[]string{"type"},
	)

	relationshipsInactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relationships_inactivated_total",
			Help: "Total number of relationships inactivated",
		},
	)

	linksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pictogram_links_created_total",
			Help: "Total number of patient-pictogram links created",
		},
		[]string{"mode"}, // single, batch
	)

	mutationConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mutation_conflicts_total",
			Help: "Total number of mutations rejected by uniqueness or consistency checks",
		},
		[]string{"code"},
	)

	legacyImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legacy_imports_total",
			Help: "Total number of legacy HIS person imports, by outcome",
		},
		[]string{"outcome"}, // created, merged, conflict, invalid
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordPersonResolved records a person registration outcome
func RecordPersonResolved(role, outcome string) {
	personsResolved.WithLabelValues(role, outcome).Inc()
}

// RecordRelationshipCreated records a relationship creation
func RecordRelationshipCreated(relType string) {
	relationshipsCreated.WithLabelValues(relType).Inc()
}

// RecordRelationshipInactivated records a relationship inactivation
func RecordRelationshipInactivated() {
	relationshipsInactivated.Inc()
}

// RecordLinkCreated records pictogram link creations
func RecordLinkCreated(mode string, count int) {
	linksCreated.WithLabelValues(mode).Add(float64(count))
}

// RecordMutationConflict records a mutation rejected by an invariant check
func RecordMutationConflict(code string) {
	mutationConflicts.WithLabelValues(code).Inc()
}

// RecordLegacyImport records a legacy import outcome
func RecordLegacyImport(outcome string) {
	legacyImports.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
