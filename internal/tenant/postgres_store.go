package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore reads tenants from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed tenant store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const tenantColumns = `id, name, slug, custom_domain, plan, status, features, limits, created_at, updated_at`

func (p *PostgresStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	return p.scanTenant(p.db.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

func (p *PostgresStore) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return p.scanTenant(p.db.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
}

func (p *PostgresStore) FindByCustomDomain(ctx context.Context, domain string) (*Tenant, error) {
	return p.scanTenant(p.db.QueryRowContext(ctx, `
		SELECT `+tenantColumns+` FROM tenants WHERE custom_domain = $1`, domain))
}

func (p *PostgresStore) scanTenant(row *sql.Row) (*Tenant, error) {
	var (
		t            Tenant
		customDomain sql.NullString
		featuresJSON []byte
		limitsJSON   []byte
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &customDomain, &t.Plan, &t.Status,
		&featuresJSON, &limitsJSON, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	t.CustomDomain = customDomain.String
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &t.Features); err != nil {
			return nil, fmt.Errorf("decode tenant features: %w", err)
		}
	}
	if len(limitsJSON) > 0 {
		if err := json.Unmarshal(limitsJSON, &t.Limits); err != nil {
			return nil, fmt.Errorf("decode tenant limits: %w", err)
		}
	}
	return &t, nil
}

var _ Store = (*PostgresStore)(nil)
