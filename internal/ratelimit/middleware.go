package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/tenantgate/internal/entitlement"
	"github.com/mbd888/tenantgate/internal/metrics"
	"github.com/mbd888/tenantgate/internal/trust"
)

// Config carries the defaults for traffic without a resolved tenant.
// Unauthenticated callers get a stricter ceiling than any tenant plan floor.
type Config struct {
	IPRequestsPerMinute int
	IPBurst             int
}

// DefaultConfig returns the unauthenticated-traffic defaults.
func DefaultConfig() Config {
	return Config{
		IPRequestsPerMinute: 30,
		IPBurst:             6,
	}
}

// Middleware gates requests through the limiter. Tenant-resolved requests
// are keyed and sized by the tenant's entitlements; everything else is keyed
// by caller IP with the config defaults.
func Middleware(l *Limiter, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, rpm, burst, kind := limitFor(c, cfg)

		result, err := l.CheckAndConsume(c.Request.Context(), key, rpm, burst)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "service_unavailable",
				"message": "Rate limiting is temporarily unavailable.",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			metrics.RateLimitDecisions.WithLabelValues(kind, "rejected").Inc()
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. Please slow down.",
				"retry_after": result.RetryAfterSeconds,
			})
			return
		}

		metrics.RateLimitDecisions.WithLabelValues(kind, "allowed").Inc()
		c.Next()
	}
}

// limitFor keys by caller IP via gin's ClientIP, which honours forwarded-for
// headers only from the engine's trusted proxies.
func limitFor(c *gin.Context, cfg Config) (key string, rpm, burst int, kind string) {
	if tc := trust.TenantFrom(c.Request.Context()); tc != nil && tc.Tenant != nil {
		rpm, burst = entitlement.RateLimitFor(tc.Tenant)
		return "tenant:" + tc.Identity.ID, rpm, burst, "tenant"
	}
	return "ip:" + c.ClientIP(), cfg.IPRequestsPerMinute, cfg.IPBurst, "ip"
}
