package trust

import (
	"context"

	"github.com/mbd888/tenantgate/internal/tenant"
)

// Context is the request-scoped resolved tenant: one instance per request,
// immutable after creation, threaded explicitly through the call chain. It is
// never stored in shared process state and never persisted.
type Context struct {
	Identity tenant.Identity
	Source   Source
	Tenant   *tenant.Tenant // full directory record
}

type ctxKey struct{}

// WithTenant attaches a resolved tenant context to a request context.
func WithTenant(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// TenantFrom extracts the resolved tenant context, nil when absent.
func TenantFrom(ctx context.Context) *Context {
	tc, _ := ctx.Value(ctxKey{}).(*Context)
	return tc
}
