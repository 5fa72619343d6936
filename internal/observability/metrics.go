package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	activitiesRecordedTotal *prometheus.CounterVec
	activityFailuresTotal   *prometheus.CounterVec
	internalIDConflicts     prometheus.Counter
	cacheInvalidationErrors prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ternak_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ternak_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		activitiesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ternak_activities_recorded_total",
			Help: "Activities appended, split by type and origin.",
		}, []string{"type", "origin"})

		activityFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ternak_activity_failures_total",
			Help: "Automatic activities that could not be persisted.",
		}, []string{"type"})

		internalIDConflicts = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ternak_internal_id_conflicts_total",
			Help: "Internal id collisions resolved by retrying generation.",
		})

		cacheInvalidationErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ternak_cache_invalidation_errors_total",
			Help: "Cache invalidations that failed and left a possibly stale entry.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			activitiesRecordedTotal,
			activityFailuresTotal,
			internalIDConflicts,
			cacheInvalidationErrors,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ActivitiesRecorded counts appended activities; origin is "automatic" or "manual".
func ActivitiesRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return activitiesRecordedTotal
}

// ActivityFailures counts automatic activities lost to persistence errors.
func ActivityFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return activityFailuresTotal
}

// InternalIDConflicts counts unique-constraint collisions on internal ids.
func InternalIDConflicts() prometheus.Counter {
	RegisterMetrics()
	return internalIDConflicts
}

// CacheInvalidationErrors counts failed cache deletions.
func CacheInvalidationErrors() prometheus.Counter {
	RegisterMetrics()
	return cacheInvalidationErrors
}

// MetricsHandler serves the default Prometheus registry through Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
}
