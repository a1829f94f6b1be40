// Package tenant provides the tenant model and directory for the Tenantgate core.
package tenant

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotFound    = errors.New("tenant: not found")
	ErrSuspended   = errors.New("tenant: suspended")
	ErrArchived    = errors.New("tenant: archived")
	ErrMaintenance = errors.New("tenant: under maintenance")
)

// Status represents a tenant's lifecycle state.
type Status string

const (
	StatusActive      Status = "active"
	StatusTrial       Status = "trial"
	StatusSuspended   Status = "suspended"
	StatusMaintenance Status = "maintenance"
	StatusArchived    Status = "archived"
)

// Servable reports whether requests for the tenant may proceed at all.
// Archived is terminal and never servable.
func (s Status) Servable() bool {
	return s == StatusActive || s == StatusTrial
}

// Identity is the minimal tenant identity used to scope data.
// ID is the only value ever used for scoping; Slug is for lookup and display.
type Identity struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Status Status `json:"status"`
}

// Tenant is a full tenant record as held by the directory.
type Tenant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	CustomDomain string          `json:"customDomain,omitempty"`
	Plan         Plan            `json:"plan"`
	Status       Status          `json:"status"`
	Features     map[string]bool `json:"features,omitempty"` // per-tenant overrides on top of the plan
	Limits       LimitSet        `json:"limits,omitempty"`   // per-tenant overrides on top of the plan
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Identity returns the scoping identity for the tenant.
func (t *Tenant) Identity() Identity {
	return Identity{ID: t.ID, Slug: t.Slug, Status: t.Status}
}

// StatusError maps a non-servable status to its error, or nil when servable.
func (t *Tenant) StatusError() error {
	switch t.Status {
	case StatusSuspended:
		return ErrSuspended
	case StatusArchived:
		return ErrArchived
	case StatusMaintenance:
		return ErrMaintenance
	default:
		return nil
	}
}
