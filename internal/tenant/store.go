package tenant

import "context"

// Store is the repository the directory reads tenants from. Implementations
// return ErrNotFound for absent tenants and report status verbatim; all
// policy lives in the callers.
type Store interface {
	FindByID(ctx context.Context, id string) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindByCustomDomain(ctx context.Context, domain string) (*Tenant, error)
}
