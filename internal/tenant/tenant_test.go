package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lookups(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Put(&Tenant{
		ID:           "t_1",
		Name:         "Acme Corp",
		Slug:         "acme",
		CustomDomain: "shop.acme.test",
		Plan:         PlanGrowth,
		Status:       StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})

	got, err := store.FindByID(ctx, "t_1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)

	got, err = store.FindBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "t_1", got.ID)

	got, err = store.FindByCustomDomain(ctx, "shop.acme.test")
	require.NoError(t, err)
	assert.Equal(t, "t_1", got.ID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.FindByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindBySlug(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByCustomDomain(ctx, "nonexistent.test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(&Tenant{ID: "t_1", Slug: "acme", Name: "Acme"})

	got, _ := store.FindByID(ctx, "t_1")
	got.Name = "Mutated"

	again, _ := store.FindByID(ctx, "t_1")
	assert.Equal(t, "Acme", again.Name)
}

func TestStatusServable(t *testing.T) {
	assert.True(t, StatusActive.Servable())
	assert.True(t, StatusTrial.Servable())
	assert.False(t, StatusSuspended.Servable())
	assert.False(t, StatusMaintenance.Servable())
	assert.False(t, StatusArchived.Servable())
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, (&Tenant{Status: StatusActive}).StatusError())
	assert.NoError(t, (&Tenant{Status: StatusTrial}).StatusError())
	assert.ErrorIs(t, (&Tenant{Status: StatusSuspended}).StatusError(), ErrSuspended)
	assert.ErrorIs(t, (&Tenant{Status: StatusArchived}).StatusError(), ErrArchived)
	assert.ErrorIs(t, (&Tenant{Status: StatusMaintenance}).StatusError(), ErrMaintenance)
}

func TestPlanAtLeast(t *testing.T) {
	// The ladder is starter < growth < business < enterprise, not
	// alphabetical order.
	assert.True(t, PlanBusiness.AtLeast(PlanGrowth))
	assert.True(t, PlanEnterprise.AtLeast(PlanStarter))
	assert.True(t, PlanGrowth.AtLeast(PlanGrowth))
	assert.False(t, PlanStarter.AtLeast(PlanGrowth))
	assert.False(t, PlanGrowth.AtLeast(PlanBusiness))

	// Unknown plans never qualify, in either position.
	assert.False(t, Plan("premium").AtLeast(PlanStarter))
	assert.False(t, PlanEnterprise.AtLeast(Plan("premium")))
}

func TestPlanFor_UnknownFallsBackToStarter(t *testing.T) {
	cfg := PlanFor(Plan("premium"))
	assert.Equal(t, PlanStarter, cfg.Plan)
}

func TestValidPlan(t *testing.T) {
	assert.True(t, ValidPlan(PlanStarter))
	assert.True(t, ValidPlan(PlanGrowth))
	assert.True(t, ValidPlan(PlanBusiness))
	assert.True(t, ValidPlan(PlanEnterprise))
	assert.False(t, ValidPlan(Plan("premium")))
}

func TestLimitSentinel(t *testing.T) {
	assert.True(t, Unlimited.IsUnlimited())
	assert.False(t, Limit(0).IsUnlimited())

	assert.True(t, Unlimited.Allows(1<<60, 1))
	assert.True(t, Limit(10).Allows(9, 1))
	assert.False(t, Limit(10).Allows(10, 1))
}

func TestLimitSet_GetAbsentIsUnlimited(t *testing.T) {
	ls := LimitSet{ResourceProducts: 5}
	assert.Equal(t, Limit(5), ls.Get(ResourceProducts))
	assert.Equal(t, Unlimited, ls.Get(Resource("widgets")))

	var nilSet LimitSet
	assert.Equal(t, Unlimited, nilSet.Get(ResourceProducts))
}

func TestEffectiveLimits_OverridesWin(t *testing.T) {
	tn := &Tenant{
		Plan:   PlanStarter,
		Limits: LimitSet{ResourceProducts: 9_999},
	}
	merged := tn.EffectiveLimits()
	assert.Equal(t, Limit(9_999), merged[ResourceProducts])
	// Untouched plan values survive the merge.
	assert.Equal(t, Plans[PlanStarter].Limits[ResourceOrders], merged[ResourceOrders])
}
