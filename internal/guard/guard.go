// Package guard enforces tenant isolation on data access. All functions are
// pure: they either return scoped values or fail fast, and they never trust a
// caller-supplied tenant identifier over the resolved one.
package guard

import (
	"fmt"

	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/trust"
)

// TenantIDField is the filter/payload key the guards force the resolved
// tenant identifier into.
const TenantIDField = "tenant_id"

// Options tune which non-active statuses RequireActive lets through.
// Archived is terminal and never let through, whatever the options say.
type Options struct {
	AllowSuspended   bool
	AllowMaintenance bool
}

// RequireTenant returns the resolved identity or fails when no tenant was
// resolved.
func RequireTenant(tc *trust.Context) (tenant.Identity, error) {
	if tc == nil {
		return tenant.Identity{}, trust.ErrTenantMissing
	}
	return tc.Identity, nil
}

// RequireActive returns the resolved identity, rejecting tenants whose
// status makes them unservable.
func RequireActive(tc *trust.Context, opts Options) (tenant.Identity, error) {
	id, err := RequireTenant(tc)
	if err != nil {
		return tenant.Identity{}, err
	}
	switch id.Status {
	case tenant.StatusArchived:
		return tenant.Identity{}, tenant.ErrArchived
	case tenant.StatusSuspended:
		if !opts.AllowSuspended {
			return tenant.Identity{}, tenant.ErrSuspended
		}
	case tenant.StatusMaintenance:
		if !opts.AllowMaintenance {
			return tenant.Identity{}, tenant.ErrMaintenance
		}
	}
	return id, nil
}

// ScopeFilter returns a copy of filter with the resolved tenant identifier
// forced in. A tenant identifier the caller supplied is overwritten, never
// merged: that is the anti-spoofing guarantee.
func ScopeFilter(tc *trust.Context, filter map[string]any) (map[string]any, error) {
	return scope(tc, filter)
}

// ScopePayload gives write payloads the same guarantee as ScopeFilter.
func ScopePayload(tc *trust.Context, payload map[string]any) (map[string]any, error) {
	return scope(tc, payload)
}

func scope(tc *trust.Context, in map[string]any) (map[string]any, error) {
	id, err := RequireTenant(tc)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	out[TenantIDField] = id.ID
	return out, nil
}

// AssertOwnership fails unless the record belongs to the resolved tenant.
// The error never echoes the mismatched identifier, so a probing caller
// learns nothing about other tenants' identifiers.
func AssertOwnership(tc *trust.Context, recordTenantID string) error {
	if !BelongsTo(tc, recordTenantID) {
		return fmt.Errorf("%w: record is not accessible to the resolved tenant", trust.ErrAccessDenied)
	}
	return nil
}

// BelongsTo is the non-throwing form of AssertOwnership, for filtering
// lists. Returns false when no tenant is resolved.
func BelongsTo(tc *trust.Context, recordTenantID string) bool {
	if tc == nil || recordTenantID == "" {
		return false
	}
	return recordTenantID == tc.Identity.ID
}
