package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/mbd888/tenantgate/internal/metrics"
)

// DefaultCacheTTL bounds how stale a cached tenant record may be. A status
// change propagates to every process within one TTL; that window is accepted,
// there is no distributed invalidation.
const DefaultCacheTTL = 60 * time.Second

// Directory is a read-through TTL cache in front of a Store. Entries are
// immutable once inserted and expire lazily at read time; negative lookups
// are never cached so a tenant created moments later is found immediately.
type Directory struct {
	store Store
	ttl   time.Duration
	clock clock.Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry

	// loads collapses concurrent misses for the same key into one store call.
	loads singleflight.Group
}

type cacheEntry struct {
	tenant     *Tenant
	insertedAt time.Time
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithTTL overrides the default cache TTL.
func WithTTL(ttl time.Duration) DirectoryOption {
	return func(d *Directory) { d.ttl = ttl }
}

// WithClock injects the clock used for TTL checks.
func WithClock(c clock.Clock) DirectoryOption {
	return func(d *Directory) { d.clock = c }
}

// NewDirectory creates a directory over the given store.
func NewDirectory(store Store, opts ...DirectoryOption) *Directory {
	d := &Directory{
		store:   store,
		ttl:     DefaultCacheTTL,
		clock:   clock.New(),
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ByID looks a tenant up by its stable identifier.
func (d *Directory) ByID(ctx context.Context, id string, bypassCache bool) (*Tenant, error) {
	return d.lookup("id:"+id, bypassCache, func() (*Tenant, error) {
		return d.store.FindByID(ctx, id)
	})
}

// BySlug looks a tenant up by slug.
func (d *Directory) BySlug(ctx context.Context, slug string, bypassCache bool) (*Tenant, error) {
	return d.lookup("slug:"+slug, bypassCache, func() (*Tenant, error) {
		return d.store.FindBySlug(ctx, slug)
	})
}

// ByCustomDomain looks a tenant up by its custom domain.
func (d *Directory) ByCustomDomain(ctx context.Context, domain string, bypassCache bool) (*Tenant, error) {
	return d.lookup("domain:"+domain, bypassCache, func() (*Tenant, error) {
		return d.store.FindByCustomDomain(ctx, domain)
	})
}

func (d *Directory) lookup(key string, bypassCache bool, load func() (*Tenant, error)) (*Tenant, error) {
	if !bypassCache {
		if t, ok := d.cached(key); ok {
			metrics.DirectoryLookups.WithLabelValues("hit").Inc()
			return t, nil
		}
	}

	v, err, _ := d.loads.Do(key, func() (interface{}, error) {
		t, err := load()
		if err != nil {
			return nil, err
		}
		d.insert(key, t)
		return t, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.DirectoryLookups.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		metrics.DirectoryLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("tenant lookup %s: %w", key, err)
	}
	metrics.DirectoryLookups.WithLabelValues("miss").Inc()

	cp := *(v.(*Tenant))
	return &cp, nil
}

func (d *Directory) cached(key string) (*Tenant, bool) {
	d.mu.RLock()
	entry, ok := d.entries[key]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if d.clock.Now().Sub(entry.insertedAt) >= d.ttl {
		// Expired; removal is deferred to the insert that follows the reload.
		return nil, false
	}
	cp := *entry.tenant
	return &cp, true
}

func (d *Directory) insert(key string, t *Tenant) {
	cp := *t
	d.mu.Lock()
	d.entries[key] = cacheEntry{tenant: &cp, insertedAt: d.clock.Now()}
	d.mu.Unlock()
}

// InvalidateID drops the cached entry for a tenant id. No-op when absent.
func (d *Directory) InvalidateID(id string) { d.invalidate("id:" + id) }

// InvalidateSlug drops the cached entry for a slug. No-op when absent.
func (d *Directory) InvalidateSlug(slug string) { d.invalidate("slug:" + slug) }

// InvalidateCustomDomain drops the cached entry for a domain. No-op when absent.
func (d *Directory) InvalidateCustomDomain(domain string) { d.invalidate("domain:" + domain) }

func (d *Directory) invalidate(key string) {
	d.mu.Lock()
	delete(d.entries, key)
	d.mu.Unlock()
}

// InvalidateAll clears the full cache.
func (d *Directory) InvalidateAll() {
	d.mu.Lock()
	d.entries = make(map[string]cacheEntry)
	d.mu.Unlock()
}
