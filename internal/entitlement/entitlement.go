// Package entitlement computes quota and feature decisions from a tenant's
// plan and current usage.
package entitlement

import (
	"fmt"

	"github.com/mbd888/tenantgate/internal/metrics"
	"github.com/mbd888/tenantgate/internal/tenant"
)

// QuotaCheckResult is the value object returned by CheckQuota. Remaining is
// -1 for unlimited resources.
type QuotaCheckResult struct {
	Allowed   bool            `json:"allowed"`
	Resource  tenant.Resource `json:"resource"`
	Limit     tenant.Limit    `json:"limit"`
	Current   int64           `json:"current"`
	Remaining int64           `json:"remaining"`
	Message   string          `json:"message,omitempty"`
}

// QuotaExceededError carries the denial payload for API responses.
type QuotaExceededError struct {
	Result QuotaCheckResult
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("entitlement: %s quota exceeded (%d of %d used)",
		e.Result.Resource, e.Result.Current, e.Result.Limit)
}

// FeatureNotAvailableError carries the denial payload for API responses.
type FeatureNotAvailableError struct {
	Feature string      `json:"feature"`
	Plan    tenant.Plan `json:"plan"`
}

func (e *FeatureNotAvailableError) Error() string {
	return fmt.Sprintf("entitlement: feature %q not available on plan %q", e.Feature, e.Plan)
}

// CheckQuota decides whether consuming incrementBy more of a resource stays
// within the tenant's ceiling. It never fails: an unrecognised resource kind
// is unbounded, so new resource kinds stay usable on deployments that predate
// them.
func CheckQuota(t *tenant.Tenant, resource tenant.Resource, current, incrementBy int64) QuotaCheckResult {
	limit := t.EffectiveLimits().Get(resource)

	result := QuotaCheckResult{
		Resource: resource,
		Limit:    limit,
		Current:  current,
	}
	if limit.IsUnlimited() {
		result.Allowed = true
		result.Remaining = -1
		return result
	}

	result.Allowed = limit.Allows(current, incrementBy)
	result.Remaining = max(0, int64(limit)-current)
	if !result.Allowed {
		result.Message = fmt.Sprintf("%s limit reached for the current plan", resource)
		metrics.QuotaDenials.WithLabelValues(string(resource)).Inc()
	}
	return result
}

// AssertQuota is the fail-fast form of CheckQuota.
func AssertQuota(t *tenant.Tenant, resource tenant.Resource, current, incrementBy int64) error {
	result := CheckQuota(t, resource, current, incrementBy)
	if !result.Allowed {
		return &QuotaExceededError{Result: result}
	}
	return nil
}

// HasFeature reports whether the tenant may use a feature flag. Plan-level
// grants take priority over per-tenant overrides; overrides default to false.
func HasFeature(t *tenant.Tenant, flag string) bool {
	for _, granted := range tenant.PlanFor(t.Plan).Features {
		if granted == flag {
			return true
		}
	}
	return t.Features[flag]
}

// AssertFeature is the fail-fast form of HasFeature.
func AssertFeature(t *tenant.Tenant, flag string) error {
	if !HasFeature(t, flag) {
		return &FeatureNotAvailableError{Feature: flag, Plan: t.Plan}
	}
	return nil
}

// RateLimitFor derives a tenant's per-minute request ceiling and burst
// allowance from its daily API quota, so rate protection scales with what the
// tenant already bought instead of a separate dial. An unlimited daily quota
// falls back to the plan's per-minute floor.
func RateLimitFor(t *tenant.Tenant) (rpm, burst int) {
	cfg := tenant.PlanFor(t.Plan)
	rpm = cfg.DefaultRPM

	daily := t.EffectiveLimits().Get(tenant.ResourceAPICallsPerDay)
	if !daily.IsUnlimited() {
		// 2x the even spread of the daily quota across 1440 minutes.
		derived := int(ceilDiv(int64(daily)*2, 1440))
		if derived > rpm {
			rpm = derived
		}
	}
	burst = int(ceilDiv(int64(rpm), 5))
	return rpm, burst
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
