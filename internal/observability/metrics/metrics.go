package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the counters the governance layer and HTTP surface emit.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	rateLimitDenials *prometheus.CounterVec
	gateDenials      *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pagelift_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagelift_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimitDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pagelift_rate_limit_denials_total",
			Help: "Requests rejected by the fixed-window rate limiter, by operation class.",
		}, []string{"class"}),
		gateDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pagelift_gate_denials_total",
			Help: "Requests rejected by the plan gate, by check kind.",
		}, []string{"kind"}),
		cacheEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pagelift_cache_events_total",
			Help: "Response cache lookups by resource and result.",
		}, []string{"resource", "result"}),
	}
}

func (m *Metrics) ObserveRateLimitDenial(class string) {
	if m == nil {
		return
	}
	m.rateLimitDenials.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveGateDenial(kind string) {
	if m == nil {
		return
	}
	m.gateDenials.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveCache(resource string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheEvents.WithLabelValues(resource, result).Inc()
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
