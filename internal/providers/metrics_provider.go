package providers

import (
	"predictor/internal/structures"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveUpstreamCall(endpoint string, status int, duration time.Duration)
	IncGateTransition(from, to string)
	IncStaleResponses(view string)
	ObservePersistenceDuration(duration time.Duration)
	SetWorkspacesTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	upstreamCalls       *prometheus.CounterVec
	upstreamDuration    *prometheus.HistogramVec
	gateTransitions     *prometheus.CounterVec
	staleResponses      *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	workspacesTotal     prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

// ObserveUpstreamCall records one call to the remote API. Status 0 means the
// request never produced a response (network error, cancellation).
func (m *MetricsProvider) ObserveUpstreamCall(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamCalls.WithLabelValues(endpoint, label).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncGateTransition(from, to string) {
	m.gateTransitions.WithLabelValues(from, to).Inc()
}

func (m *MetricsProvider) IncStaleResponses(view string) {
	m.staleResponses.WithLabelValues(view).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetWorkspacesTotal(count int) {
	m.workspacesTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_requests_total",
			Help: "Total number of HTTP requests served by the gateway",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predictor_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "predictor_cache_hits_total",
			Help: "Total number of upstream response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "predictor_cache_misses_total",
			Help: "Total number of upstream response cache misses",
		}),

		upstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_upstream_calls_total",
			Help: "Total number of calls to the remote predictor API",
		}, []string{"endpoint", "status"}),

		upstreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predictor_upstream_duration_seconds",
			Help:    "Remote predictor API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		gateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_gate_transitions_total",
			Help: "Disclosure gate state transitions",
		}, []string{"from", "to"}),

		staleResponses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_stale_responses_total",
			Help: "Upstream responses dropped because a newer request superseded them",
		}, []string{"view"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "predictor_persistence_duration_seconds",
			Help:    "Duration of client store persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		workspacesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_workspaces_total",
			Help: "Number of live visitor workspaces",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                        {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)        {}
func (n *noopMetrics) IncCacheHits()                                           {}
func (n *noopMetrics) IncCacheMisses()                                         {}
func (n *noopMetrics) ObserveUpstreamCall(_ string, _ int, _ time.Duration)    {}
func (n *noopMetrics) IncGateTransition(_, _ string)                           {}
func (n *noopMetrics) IncStaleResponses(_ string)                              {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)              {}
func (n *noopMetrics) SetWorkspacesTotal(_ int)                                {}
