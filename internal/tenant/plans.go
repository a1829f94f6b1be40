package tenant

// Plan identifies the pricing tier.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// planOrder fixes the tier ordering used by AtLeast. Comparing tiers by
// string would order "business" above "growth" alphabetically but the
// commercial ladder is starter < growth < business < enterprise.
var planOrder = []Plan{PlanStarter, PlanGrowth, PlanBusiness, PlanEnterprise}

func planIndex(p Plan) int {
	for i, candidate := range planOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// AtLeast reports whether p is the given tier or higher. Unknown plans never
// satisfy any tier.
func (p Plan) AtLeast(min Plan) bool {
	pi, mi := planIndex(p), planIndex(min)
	if pi < 0 || mi < 0 {
		return false
	}
	return pi >= mi
}

// PlanConfig defines the entitlements of a pricing tier.
type PlanConfig struct {
	Plan       Plan
	Features   []string
	Limits     LimitSet
	DefaultRPM int // per-minute request floor, before quota-derived scaling
}

// Plans is the hardcoded plan catalogue.
var Plans = map[Plan]PlanConfig{
	PlanStarter: {
		Plan:       PlanStarter,
		Features:   []string{"catalog", "orders"},
		DefaultRPM: 60,
		Limits: LimitSet{
			ResourceProducts:       100,
			ResourceOrders:         500,
			ResourceUsers:          3,
			ResourceAPICallsPerDay: 10_000,
			ResourceStorageMB:      512,
		},
	},
	PlanGrowth: {
		Plan:       PlanGrowth,
		Features:   []string{"catalog", "orders", "webhooks", "custom_domain"},
		DefaultRPM: 120,
		Limits: LimitSet{
			ResourceProducts:       1_000,
			ResourceOrders:         10_000,
			ResourceUsers:          10,
			ResourceAPICallsPerDay: 100_000,
			ResourceStorageMB:      5_120,
		},
	},
	PlanBusiness: {
		Plan:       PlanBusiness,
		Features:   []string{"catalog", "orders", "webhooks", "custom_domain", "audit_log", "sso"},
		DefaultRPM: 300,
		Limits: LimitSet{
			ResourceProducts:       10_000,
			ResourceOrders:         100_000,
			ResourceUsers:          50,
			ResourceAPICallsPerDay: 1_000_000,
			ResourceStorageMB:      51_200,
		},
	},
	PlanEnterprise: {
		Plan:       PlanEnterprise,
		Features:   []string{"catalog", "orders", "webhooks", "custom_domain", "audit_log", "sso", "dedicated_support"},
		DefaultRPM: 1_000,
		Limits: LimitSet{
			ResourceProducts:       Unlimited,
			ResourceOrders:         Unlimited,
			ResourceUsers:          Unlimited,
			ResourceAPICallsPerDay: Unlimited,
			ResourceStorageMB:      Unlimited,
		},
	},
}

// PlanFor returns the catalogue entry for a plan, falling back to starter for
// unknown plan names.
func PlanFor(p Plan) PlanConfig {
	cfg, ok := Plans[p]
	if !ok {
		cfg = Plans[PlanStarter]
	}
	return cfg
}

// ValidPlan returns true if the plan name is recognised.
func ValidPlan(p Plan) bool {
	_, ok := Plans[p]
	return ok
}

// EffectiveLimits returns the tenant's plan limits with per-tenant overrides
// applied.
func (t *Tenant) EffectiveLimits() LimitSet {
	return PlanFor(t.Plan).Limits.Merge(t.Limits)
}
