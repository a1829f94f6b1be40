// Package trust resolves which tenant an incoming request belongs to and
// whether that resolution can be believed. Token claims always win; header
// claims are only honoured under the configured trust mode.
package trust

import "errors"

// Errors
var (
	ErrTenantMissing    = errors.New("trust: no tenant resolved")
	ErrClaimsMissing    = errors.New("trust: token missing required tenant claims")
	ErrTokenInvalid     = errors.New("trust: token verification failed")
	ErrSignatureInvalid = errors.New("trust: tenant header signature invalid")
	ErrAccessDenied     = errors.New("trust: principal not permitted for tenant")
	ErrConfig           = errors.New("trust: invalid resolver configuration")
)

// Mode decides which signal sources for tenant identity are accepted beyond
// a verified token.
type Mode string

const (
	// ModeJWTOnly ignores tenant headers entirely.
	ModeJWTOnly Mode = "jwt-only"
	// ModeDisabled ignores tenant headers silently (still audit-counted).
	ModeDisabled Mode = "disabled"
	// ModeSigned honours tenant headers carrying a fresh HMAC signature.
	ModeSigned Mode = "signed"
	// ModeInternalNetwork honours tenant headers from trusted address ranges.
	ModeInternalNetwork Mode = "internal-network"
)

// ValidMode reports whether m is a recognised trust mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeJWTOnly, ModeDisabled, ModeSigned, ModeInternalNetwork:
		return true
	}
	return false
}

// Source records which signal produced a resolution.
type Source string

const (
	SourceToken           Source = "token"
	SourceSignedHeader    Source = "signed-header"
	SourceInternalNetwork Source = "internal-network"
)

// ResolvedTenant is the outcome of trust resolution: an identity reference
// and the signal it came from. It carries no tenant state; the directory is
// consulted for that.
type ResolvedTenant struct {
	ID     string
	Slug   string
	Host   string // custom domain, when resolution came from x-tenant-host
	Source Source
}
