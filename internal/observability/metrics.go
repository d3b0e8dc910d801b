package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/forecast-averages-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate by route template and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency. Watch for: p99 growth with large forecast lists.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Successful averaging computations.
	AveragesComputedTotal prometheus.Counter

	// Forecast entries per request. Watch for: clients approaching request.max_entries.
	ForecastEntriesPerRequest prometheus.Histogram

	// Distinct dates per response.
	ForecastDaysPerRequest prometheus.Histogram

	// Rejected request bodies by source (decode, schema).
	ValidationFailuresTotal *prometheus.CounterVec

	// Rate limit denials (429).
	RateLimitDeniedTotal prometheus.Counter

	// Handler panics converted to 500.
	PanicsRecoveredTotal prometheus.Counter

	// In-flight requests observed when shutdown began.
	ShutdownInFlightRequests prometheus.Gauge

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	AveragesComputedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "averagesComputedTotal",
			Help: "Total number of successful day/night averaging computations",
		},
	)
	ForecastEntriesPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastEntriesPerRequest",
			Help:    "Number of forecast entries in each accepted request",
			Buckets: []float64{0, 8, 16, 40, 80, 200, 500, 1000},
		},
	)
	ForecastDaysPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastDaysPerRequest",
			Help:    "Number of distinct dates in each response",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 10, 16},
		},
	)
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validationFailuresTotal",
			Help: "Total number of request bodies rejected with 422",
		},
		[]string{"source"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panicsRecoveredTotal",
			Help: "Total number of handler panics converted to 500 responses",
		},
	)
	ShutdownInFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "Requests still in flight when graceful shutdown began",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		AveragesComputedTotal, ForecastEntriesPerRequest, ForecastDaysPerRequest,
		ValidationFailuresTotal,
		RateLimitDeniedTotal, PanicsRecoveredTotal,
		ShutdownInFlightRequests,
	)
}

// RegisterTrafficGauges exposes the sliding-window traffic counters used by /health.
// Call once from main with the overload window.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting the rate-limited path in the sliding window",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in the sliding window",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "serverErrorsInWindow",
					Help: "5xx outcomes in the sliding window",
				},
				func() float64 {
					errs, _ := traffic.ErrorRate(window)
					return float64(errs)
				},
			),
		)
	})
}

// RecordAverages records a successful computation over entries input rows producing days summaries.
func RecordAverages(entries, days int) {
	AveragesComputedTotal.Inc()
	ForecastEntriesPerRequest.Observe(float64(entries))
	ForecastDaysPerRequest.Observe(float64(days))
}

// RecordValidationFailure counts a 422 by source ("decode" or "schema").
func RecordValidationFailure(source string) {
	ValidationFailuresTotal.WithLabelValues(source).Inc()
}

// RecordShutdownInFlight records the in-flight count at shutdown.
func RecordShutdownInFlight(n int64) {
	ShutdownInFlightRequests.Set(float64(n))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
