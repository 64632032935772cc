package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the dashboard.
type Metrics struct {
	Registry        *prometheus.Registry
	handler         http.Handler
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queryDuration   prometheus.Histogram
	queryResults    prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_dashboard_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_dashboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	queryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_dashboard_query_duration_seconds",
		Help:    "Time spent filtering lessons.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	queryResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_dashboard_query_results",
		Help:    "Number of lessons returned per query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_dashboard_cache_hits_total",
		Help: "Queries answered from the cache.",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_dashboard_cache_misses_total",
		Help: "Queries that had to filter the lesson set.",
	})

	registry.MustRegister(requestTotal, requestDuration, queryDuration, queryResults, cacheHits, cacheMisses)

	return &Metrics{
		Registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		queryDuration:   queryDuration,
		queryResults:    queryResults,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// ObserveQuery records one lesson query.
func (m *Metrics) ObserveQuery(d time.Duration, results int, cached bool) {
	if m == nil {
		return
	}
	if cached {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
		m.queryDuration.Observe(d.Seconds())
	}
	m.queryResults.Observe(float64(results))
}
