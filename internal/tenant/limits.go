package tenant

// Resource identifies a countable resource kind subject to plan ceilings.
type Resource string

const (
	ResourceProducts       Resource = "products"
	ResourceOrders         Resource = "orders"
	ResourceUsers          Resource = "users"
	ResourceAPICallsPerDay Resource = "api_calls_per_day"
	ResourceStorageMB      Resource = "storage_mb"
)

// Limit is a numeric ceiling for one resource kind. Unlimited is a distinct
// sentinel, never a large number, so comparisons can't overflow into wrong
// answers.
type Limit int64

// Unlimited marks a resource with no ceiling.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit imposes no ceiling.
func (l Limit) IsUnlimited() bool { return l < 0 }

// Allows reports whether current+increment stays within the ceiling.
func (l Limit) Allows(current, increment int64) bool {
	if l.IsUnlimited() {
		return true
	}
	return current+increment <= int64(l)
}

// LimitSet maps resource kinds to ceilings. Absent kinds are unlimited.
type LimitSet map[Resource]Limit

// Get returns the ceiling for a resource, Unlimited when the kind is absent.
func (ls LimitSet) Get(r Resource) Limit {
	if ls == nil {
		return Unlimited
	}
	if l, ok := ls[r]; ok {
		return l
	}
	return Unlimited
}

// Merge returns a new LimitSet with overrides applied on top of ls.
func (ls LimitSet) Merge(overrides LimitSet) LimitSet {
	merged := make(LimitSet, len(ls)+len(overrides))
	for r, l := range ls {
		merged[r] = l
	}
	for r, l := range overrides {
		merged[r] = l
	}
	return merged
}
