package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/trust"
)

func ctxFor(id string, status tenant.Status) *trust.Context {
	return &trust.Context{
		Identity: tenant.Identity{ID: id, Slug: id + "-slug", Status: status},
		Source:   trust.SourceToken,
	}
}

func TestRequireTenant(t *testing.T) {
	id, err := RequireTenant(ctxFor("t_a", tenant.StatusActive))
	require.NoError(t, err)
	assert.Equal(t, "t_a", id.ID)

	_, err = RequireTenant(nil)
	assert.ErrorIs(t, err, trust.ErrTenantMissing)
}

func TestRequireActive(t *testing.T) {
	_, err := RequireActive(ctxFor("t_a", tenant.StatusActive), Options{})
	assert.NoError(t, err)

	_, err = RequireActive(ctxFor("t_a", tenant.StatusTrial), Options{})
	assert.NoError(t, err)

	_, err = RequireActive(ctxFor("t_a", tenant.StatusSuspended), Options{})
	assert.ErrorIs(t, err, tenant.ErrSuspended)

	_, err = RequireActive(ctxFor("t_a", tenant.StatusSuspended), Options{AllowSuspended: true})
	assert.NoError(t, err)

	_, err = RequireActive(ctxFor("t_a", tenant.StatusMaintenance), Options{})
	assert.ErrorIs(t, err, tenant.ErrMaintenance)

	_, err = RequireActive(ctxFor("t_a", tenant.StatusMaintenance), Options{AllowMaintenance: true})
	assert.NoError(t, err)
}

func TestRequireActive_ArchivedIsTerminal(t *testing.T) {
	// No option combination revives an archived tenant.
	for _, opts := range []Options{
		{},
		{AllowSuspended: true},
		{AllowMaintenance: true},
		{AllowSuspended: true, AllowMaintenance: true},
	} {
		_, err := RequireActive(ctxFor("t_a", tenant.StatusArchived), opts)
		assert.ErrorIs(t, err, tenant.ErrArchived, "opts %+v", opts)
	}
}

func TestScopeFilter_OverwritesCallerTenantID(t *testing.T) {
	tc := ctxFor("t_a", tenant.StatusActive)

	scoped, err := ScopeFilter(tc, map[string]any{
		"status":    "shipped",
		"tenant_id": "t_b",
	})
	require.NoError(t, err)

	assert.Equal(t, "t_a", scoped["tenant_id"])
	assert.Equal(t, "shipped", scoped["status"])
}

func TestScopeFilter_DoesNotMutateInput(t *testing.T) {
	tc := ctxFor("t_a", tenant.StatusActive)
	in := map[string]any{"sku": "abc"}

	scoped, err := ScopeFilter(tc, in)
	require.NoError(t, err)

	assert.Equal(t, "t_a", scoped["tenant_id"])
	_, leaked := in["tenant_id"]
	assert.False(t, leaked, "input map must stay untouched")
}

func TestScopeFilter_NilFilter(t *testing.T) {
	scoped, err := ScopeFilter(ctxFor("t_a", tenant.StatusActive), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tenant_id": "t_a"}, scoped)
}

func TestScopeFilter_NoTenant(t *testing.T) {
	_, err := ScopeFilter(nil, map[string]any{"sku": "abc"})
	assert.ErrorIs(t, err, trust.ErrTenantMissing)
}

func TestScopePayload_OverwritesCallerTenantID(t *testing.T) {
	tc := ctxFor("t_a", tenant.StatusActive)

	scoped, err := ScopePayload(tc, map[string]any{
		"name":      "Widget",
		"tenant_id": "t_b",
	})
	require.NoError(t, err)
	assert.Equal(t, "t_a", scoped["tenant_id"])
}

func TestAssertOwnership(t *testing.T) {
	tc := ctxFor("t_a", tenant.StatusActive)

	assert.NoError(t, AssertOwnership(tc, "t_a"))

	err := AssertOwnership(tc, "t_b")
	assert.ErrorIs(t, err, trust.ErrAccessDenied)
	// The foreign identifier must not leak through the error text.
	assert.NotContains(t, err.Error(), "t_b")

	assert.ErrorIs(t, AssertOwnership(nil, "t_a"), trust.ErrAccessDenied)
}

func TestBelongsTo(t *testing.T) {
	tc := ctxFor("t_a", tenant.StatusActive)

	assert.True(t, BelongsTo(tc, "t_a"))
	assert.False(t, BelongsTo(tc, "t_b"))
	assert.False(t, BelongsTo(tc, ""))
	assert.False(t, BelongsTo(nil, "t_a"))
}
