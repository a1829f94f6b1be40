package trust

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token fields the resolver needs. Parsing is exhaustive and
// fails closed: a token missing any required field is rejected, never
// defaulted.
type Claims struct {
	Subject    string
	TenantID   string
	TenantSlug string
}

// TokenVerifier validates an authorization token and extracts tenant claims.
// Signature cryptography is the verifier's concern; the resolver only sees
// claims or an error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// HMACTokenVerifier verifies HS256-signed tokens.
type HMACTokenVerifier struct {
	secret        []byte
	requireTenant bool
}

// NewHMACTokenVerifier creates a verifier for HS256 tokens signed with secret.
// When requireTenant is set, tokens without a tenant_id claim are rejected
// with ErrClaimsMissing instead of resolving to no tenant.
func NewHMACTokenVerifier(secret string, requireTenant bool) (*HMACTokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT secret is required", ErrConfig)
	}
	return &HMACTokenVerifier{secret: []byte(secret), requireTenant: requireTenant}, nil
}

type tokenClaims struct {
	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	jwt.RegisteredClaims
}

func (v *HMACTokenVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim absent", ErrClaimsMissing)
	}
	if v.requireTenant && claims.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id claim absent", ErrClaimsMissing)
	}

	return &Claims{
		Subject:    claims.Subject,
		TenantID:   claims.TenantID,
		TenantSlug: claims.TenantSlug,
	}, nil
}

var _ TokenVerifier = (*HMACTokenVerifier)(nil)
