package tenant

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory tenant store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant // by ID
	slugs   map[string]string  // slug → ID
	domains map[string]string  // custom domain → ID
}

// NewMemoryStore creates a new in-memory tenant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[string]*Tenant),
		slugs:   make(map[string]string),
		domains: make(map[string]string),
	}
}

// Put inserts or replaces a tenant record.
func (m *MemoryStore) Put(t *Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.tenants[t.ID] = &cp
	m.slugs[t.Slug] = t.ID
	if t.CustomDomain != "" {
		m.domains[t.CustomDomain] = t.ID
	}
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyOf(id)
}

func (m *MemoryStore) FindBySlug(_ context.Context, slug string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.slugs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(id)
}

func (m *MemoryStore) FindByCustomDomain(_ context.Context, domain string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.domains[domain]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(id)
}

// copyOf must be called with the lock held.
func (m *MemoryStore) copyOf(id string) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

var _ Store = (*MemoryStore)(nil)
