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
	// Sync job metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_sync_runs_total",
			Help: "Total number of sync job runs",
		},
		[]string{"job", "status"}, // trades/markets/users, success/error
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymonitor_sync_duration_seconds",
			Help:    "Duration of sync job runs",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"job"},
	)

	RecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_records_upserted_total",
			Help: "Total number of records written by sync jobs",
		},
		[]string{"table"},
	)

	// Analytics metrics
	Queries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_analytics_queries_total",
			Help: "Total number of analytics queries",
		},
		[]string{"query", "status"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymonitor_analytics_query_duration_seconds",
			Help:    "Duration of analytics queries",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"query"},
	)

	TradesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_trades_skipped_total",
			Help: "Trades left out of analytics because of data quality issues",
		},
		[]string{"reason"},
	)

	// Alert metrics
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_alerts_sent_total",
			Help: "Total number of whale alerts sent",
		},
		[]string{"status"},
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polymonitor_alerts_suppressed_total",
			Help: "Total number of whale alerts suppressed due to cooldown",
		},
	)

	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_api_requests_total",
			Help: "Total number of venue API requests",
		},
		[]string{"api", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymonitor_api_request_duration_seconds",
			Help:    "Duration of venue API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymonitor_database_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// HTTP server
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polymonitor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_cache_lookups_total",
			Help: "Result cache lookups",
		},
		[]string{"result"}, // hit/miss
	)

	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymonitor_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"},
	)
)

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSync records a sync job run
func RecordSync(job string, duration time.Duration, records int, err error) {
	SyncRuns.WithLabelValues(job, statusOf(err)).Inc()
	SyncDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err == nil && records > 0 {
		RecordsUpserted.WithLabelValues(job).Add(float64(records))
	}
}

// RecordQuery records an analytics query
func RecordQuery(query string, duration time.Duration, err error) {
	Queries.WithLabelValues(query, statusOf(err)).Inc()
	QueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordTradesSkipped counts trades excluded from a query
func RecordTradesSkipped(reason string, n int) {
	TradesSkipped.WithLabelValues(reason).Add(float64(n))
}

// RecordAlert records alert delivery
func RecordAlert(err error, suppressed bool) {
	if suppressed {
		AlertsSuppressed.Inc()
		return
	}
	AlertsSent.WithLabelValues(statusOf(err)).Inc()
}

// RecordAPIRequest records venue API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	APIRequests.WithLabelValues(api, endpoint, statusOf(err)).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, duration time.Duration, err error) {
	DatabaseQueries.WithLabelValues(operation, statusOf(err)).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a result cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency. Label with the matched route
// pattern when the router provides one, to keep cardinality bounded.
func Middleware(pattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if pattern != nil {
				if p := pattern(r); p != "" {
					path = p
				}
			}
			HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
