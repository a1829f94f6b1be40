// Package metrics provides Prometheus instrumentation for the Tenantgate core.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tenantgate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Resolutions counts tenant trust resolutions by source and outcome.
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "resolutions_total",
			Help:      "Tenant trust resolutions by source (token, signed-header, internal-network, none) and outcome.",
		},
		[]string{"source", "outcome"},
	)

	// DirectoryLookups counts tenant directory lookups by result
	// (hit, miss, not_found, error).
	DirectoryLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "directory_lookups_total",
			Help:      "Tenant directory lookups by cache result.",
		},
		[]string{"result"},
	)

	// RateLimitDecisions counts rate limiter outcomes by key kind.
	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limiter decisions by key kind (tenant, ip) and outcome (allowed, rejected).",
		},
		[]string{"kind", "outcome"},
	)

	// QuotaDenials counts entitlement denials by resource kind.
	QuotaDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "quota_denials_total",
			Help:      "Quota check denials by resource kind.",
		},
		[]string{"resource"},
	)

	// HeaderTrustWarnings counts tenant headers seen while the trust mode
	// ignores them. Audit visibility for misconfigured callers.
	HeaderTrustWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tenantgate",
			Name:      "header_trust_warnings_total",
			Help:      "Tenant-identifying headers ignored due to trust mode.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		Resolutions,
		DirectoryLookups,
		RateLimitDecisions,
		QuotaDenials,
		HeaderTrustWarnings,
	)
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
