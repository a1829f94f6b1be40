package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/tenantgate/internal/guard"
	"github.com/mbd888/tenantgate/internal/idgen"
	"github.com/mbd888/tenantgate/internal/logging"
	"github.com/mbd888/tenantgate/internal/metrics"
	"github.com/mbd888/tenantgate/internal/ratelimit"
	"github.com/mbd888/tenantgate/internal/security"
	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/traces"
	"github.com/mbd888/tenantgate/internal/trust"
)

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS
	s.router.Use(security.CORSMiddleware(s.cfg.AllowedOrigins))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())

	// Trust resolution + directory enrichment + status gate
	s.router.Use(s.resolveTenantMiddleware())

	// Rate limiting, keyed by tenant when one was resolved
	s.router.Use(ratelimit.Middleware(s.limiter, ratelimit.Config{
		IPRequestsPerMinute: s.cfg.RateLimitRPM,
		IPBurst:             s.cfg.RateLimitBurst,
	}))
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.WithPrefix("req_")
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// resolveTenantMiddleware runs trust resolution, loads full tenant state on a
// successful resolution, gates on status, and binds the resolved context to
// the request. Absence of a tenant is not an error here; RequireTenant
// decides that per route group.
func (s *Server) resolveTenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, err := s.resolver.Resolve(c.Request, c.ClientIP())
		if err != nil {
			s.respondError(c, err)
			return
		}
		if resolved == nil {
			c.Next()
			return
		}

		ctx, span := traces.StartSpan(c.Request.Context(), "tenant.resolve",
			traces.Source(string(resolved.Source)))
		defer span.End()

		record, err := s.loadTenant(c, resolved)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				// A trusted signal naming an unknown tenant is no tenant.
				s.respondError(c, trust.ErrTenantMissing)
				return
			}
			s.respondError(c, err)
			return
		}

		tc := &trust.Context{
			Identity: record.Identity(),
			Source:   resolved.Source,
			Tenant:   record,
		}

		if _, err := guard.RequireActive(tc, guard.Options{
			AllowSuspended:   s.cfg.AllowSuspended,
			AllowMaintenance: s.cfg.AllowMaintenance,
		}); err != nil {
			s.respondError(c, err)
			return
		}

		span.SetAttributes(traces.TenantID(record.ID))

		// Downstream hop headers; trusted only within the perimeter.
		c.Header(trust.HeaderTenantID, record.ID)
		c.Header(trust.HeaderTenantSlug, record.Slug)
		c.Header(trust.HeaderTenantStatus, string(record.Status))

		c.Request = c.Request.WithContext(trust.WithTenant(ctx, tc))
		c.Next()
	}
}

func (s *Server) loadTenant(c *gin.Context, resolved *trust.ResolvedTenant) (*tenant.Tenant, error) {
	ctx := c.Request.Context()
	switch {
	case resolved.ID != "":
		return s.directory.ByID(ctx, resolved.ID, false)
	case resolved.Slug != "":
		return s.directory.BySlug(ctx, resolved.Slug, false)
	case resolved.Host != "":
		return s.directory.ByCustomDomain(ctx, resolved.Host, false)
	default:
		return nil, tenant.ErrNotFound
	}
}

// requireTenantMiddleware rejects requests that reached a tenant-scoped route
// without a resolved tenant.
func (s *Server) requireTenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.cfg.RequireTenant {
			c.Next()
			return
		}
		if trust.TenantFrom(c.Request.Context()) == nil {
			s.respondError(c, trust.ErrTenantMissing)
			return
		}
		c.Next()
	}
}
