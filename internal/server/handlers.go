package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/tenantgate/internal/entitlement"
	"github.com/mbd888/tenantgate/internal/metrics"
	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/trust"
)

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/readyz", s.handleReadyz)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	v1.Use(s.requireTenantMiddleware())
	{
		v1.GET("/tenant", s.handleTenantInfo)
		v1.GET("/tenant/limits", s.handleTenantLimits)
		v1.GET("/tenant/entitlements/:feature", s.handleFeatureCheck)
		v1.GET("/tenant/quota/:resource", s.handleQuotaCheck)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReadyz(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	healthy, statuses := s.checks.CheckAll(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": healthy, "checks": statuses})
}

// tenantContext fetches the resolved tenant, failing the request when there
// is none. Guards the handlers when REQUIRE_TENANT is turned off.
func (s *Server) tenantContext(c *gin.Context) (*trust.Context, bool) {
	tc := trust.TenantFrom(c.Request.Context())
	if tc == nil {
		s.respondError(c, trust.ErrTenantMissing)
		return nil, false
	}
	return tc, true
}

func (s *Server) handleTenantInfo(c *gin.Context) {
	tc, ok := s.tenantContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant": tc.Identity,
		"source": tc.Source,
		"plan":   tc.Tenant.Plan,
		"name":   tc.Tenant.Name,
	})
}

func (s *Server) handleTenantLimits(c *gin.Context) {
	tc, ok := s.tenantContext(c)
	if !ok {
		return
	}
	rpm, burst := entitlement.RateLimitFor(tc.Tenant)
	c.JSON(http.StatusOK, gin.H{
		"plan":   tc.Tenant.Plan,
		"limits": tc.Tenant.EffectiveLimits(),
		"rate": gin.H{
			"requests_per_minute": rpm,
			"burst":               burst,
		},
	})
}

func (s *Server) handleFeatureCheck(c *gin.Context) {
	tc, ok := s.tenantContext(c)
	if !ok {
		return
	}
	flag := c.Param("feature")
	c.JSON(http.StatusOK, gin.H{
		"feature": flag,
		"enabled": entitlement.HasFeature(tc.Tenant, flag),
	})
}

// handleQuotaCheck evaluates a quota decision for a caller-reported usage
// count. The host application owns the counts; this endpoint owns the verdict.
func (s *Server) handleQuotaCheck(c *gin.Context) {
	tc, ok := s.tenantContext(c)
	if !ok {
		return
	}

	current, err := strconv.ParseInt(c.DefaultQuery("current", "0"), 10, 64)
	if err != nil || current < 0 {
		s.abort(c, http.StatusBadRequest, "invalid_request", "current must be a non-negative integer")
		return
	}
	increment, err := strconv.ParseInt(c.DefaultQuery("increment", "1"), 10, 64)
	if err != nil || increment < 1 {
		s.abort(c, http.StatusBadRequest, "invalid_request", "increment must be a positive integer")
		return
	}

	resource := tenant.Resource(c.Param("resource"))
	c.JSON(http.StatusOK, entitlement.CheckQuota(tc.Tenant, resource, current, increment))
}
