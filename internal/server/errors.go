package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/tenantgate/internal/entitlement"
	"github.com/mbd888/tenantgate/internal/ratelimit"
	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/trust"
)

// respondError maps core errors to stable machine-readable codes. Tenant-state
// errors and collaborator unavailability are deliberately distinct so callers
// never confuse "tenant is suspended" with "storage is down".
func (s *Server) respondError(c *gin.Context, err error) {
	var quotaErr *entitlement.QuotaExceededError
	var featureErr *entitlement.FeatureNotAvailableError
	var rateErr *ratelimit.RateLimitExceededError

	switch {
	case errors.Is(err, trust.ErrClaimsMissing):
		s.abort(c, http.StatusUnauthorized, "tenant_claims_missing",
			"The token is missing required tenant claims.")

	case errors.Is(err, trust.ErrTokenInvalid):
		s.abort(c, http.StatusUnauthorized, "token_invalid",
			"The authorization token could not be verified.")

	case errors.Is(err, trust.ErrSignatureInvalid):
		s.abort(c, http.StatusUnauthorized, "tenant_signature_invalid",
			"The tenant header signature is invalid or stale.")

	case errors.Is(err, trust.ErrTenantMissing), errors.Is(err, tenant.ErrNotFound):
		s.abort(c, http.StatusBadRequest, "tenant_missing",
			"No tenant could be resolved for this request.")

	case errors.Is(err, trust.ErrAccessDenied):
		s.abort(c, http.StatusForbidden, "tenant_access_denied",
			"The authenticated principal is not permitted for this tenant.")

	case errors.Is(err, tenant.ErrSuspended):
		s.abort(c, http.StatusForbidden, "tenant_suspended",
			"This tenant is suspended.")

	case errors.Is(err, tenant.ErrArchived):
		s.abort(c, http.StatusGone, "tenant_archived",
			"This tenant has been archived.")

	case errors.Is(err, tenant.ErrMaintenance):
		s.abort(c, http.StatusServiceUnavailable, "tenant_maintenance",
			"This tenant is under maintenance. Try again later.")

	case errors.As(err, &quotaErr):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
			"error":   "quota_exceeded",
			"message": quotaErr.Result.Message,
			"quota":   quotaErr.Result,
		})

	case errors.As(err, &featureErr):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
			"error":   "feature_not_available",
			"message": "This feature is not included in the current plan.",
			"feature": featureErr.Feature,
			"plan":    featureErr.Plan,
		})

	case errors.As(err, &rateErr):
		c.Header("Retry-After", strconv.Itoa(rateErr.Result.RetryAfterSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     "Too many requests. Please slow down.",
			"retry_after": rateErr.Result.RetryAfterSeconds,
		})

	default:
		// Collaborator failure (repository or counter store unreachable).
		s.abort(c, http.StatusServiceUnavailable, "service_unavailable",
			"A required dependency is unavailable. Try again later.")
	}
}

func (s *Server) abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
