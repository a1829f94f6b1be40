package trust

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/mbd888/tenantgate/internal/metrics"
)

// ResolverConfig wires a Resolver. Static for the process lifetime.
type ResolverConfig struct {
	Mode            Mode
	Verifier        TokenVerifier
	HeaderSecret    string   // required iff Mode is signed
	TrustedNetworks []string // CIDRs; empty uses private-network defaults
	Logger          *slog.Logger
	Clock           clock.Clock
}

// Resolver turns a request into at most one resolved tenant identity.
// Token-based resolution is cryptographically bound to the caller, so it is
// always attempted first and never shadowed by the header policy.
type Resolver struct {
	mode     Mode
	verifier TokenVerifier
	signer   *HeaderSigner
	networks *NetworkClassifier
	logger   *slog.Logger
	clock    clock.Clock
}

// NewResolver validates the configuration and builds a resolver. A signed
// mode without a header secret is a configuration error, caught here rather
// than on the first request.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if !ValidMode(cfg.Mode) {
		return nil, fmt.Errorf("%w: unknown trust mode %q", ErrConfig, cfg.Mode)
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("%w: token verifier is required", ErrConfig)
	}

	r := &Resolver{
		mode:     cfg.Mode,
		verifier: cfg.Verifier,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.clock == nil {
		r.clock = clock.New()
	}

	if cfg.Mode == ModeSigned {
		signer, err := NewHeaderSigner(cfg.HeaderSecret)
		if err != nil {
			return nil, err
		}
		r.signer = signer
	}
	if cfg.Mode == ModeInternalNetwork {
		networks, err := NewNetworkClassifier(cfg.TrustedNetworks)
		if err != nil {
			return nil, err
		}
		r.networks = networks
	}
	return r, nil
}

// Resolve inspects the request and returns the resolved tenant, or nil when
// no trusted signal names one. Absence of a signal is not an error; a token
// that is present but unusable is.
func (r *Resolver) Resolve(req *http.Request, clientIP string) (*ResolvedTenant, error) {
	// 1. Token path, always attempted regardless of mode.
	if token := bearerToken(req); token != "" {
		claims, err := r.verifier.Verify(req.Context(), token)
		if err != nil {
			metrics.Resolutions.WithLabelValues(string(SourceToken), "rejected").Inc()
			return nil, err
		}
		if claims.TenantID != "" {
			metrics.Resolutions.WithLabelValues(string(SourceToken), "resolved").Inc()
			return &ResolvedTenant{
				ID:     claims.TenantID,
				Slug:   claims.TenantSlug,
				Source: SourceToken,
			}, nil
		}
		// Valid token without a tenant claim; fall through to headers.
	}

	// 2. Header path, governed by trust mode.
	claim := extractHeaderClaim(req.Header)
	if !claim.present() {
		metrics.Resolutions.WithLabelValues("none", "unresolved").Inc()
		return nil, nil
	}

	switch r.mode {
	case ModeJWTOnly:
		r.auditIgnoredHeaders(claim, clientIP, "trust mode is jwt-only")
		return nil, nil

	case ModeDisabled:
		r.auditIgnoredHeaders(claim, clientIP, "header trust is disabled")
		return nil, nil

	case ModeSigned:
		if err := r.signer.VerifyClaim(claim.ID, claim.Slug, claim.SignatureTS, claim.Signature, r.clock.Now()); err != nil {
			metrics.Resolutions.WithLabelValues(string(SourceSignedHeader), "rejected").Inc()
			return nil, err
		}
		metrics.Resolutions.WithLabelValues(string(SourceSignedHeader), "resolved").Inc()
		return &ResolvedTenant{
			ID:     claim.ID,
			Slug:   claim.Slug,
			Host:   claim.Host,
			Source: SourceSignedHeader,
		}, nil

	case ModeInternalNetwork:
		if !r.networks.IsInternal(clientIP) {
			r.auditIgnoredHeaders(claim, clientIP, "caller outside trusted networks")
			return nil, nil
		}
		metrics.Resolutions.WithLabelValues(string(SourceInternalNetwork), "resolved").Inc()
		return &ResolvedTenant{
			ID:     claim.ID,
			Slug:   claim.Slug,
			Host:   claim.Host,
			Source: SourceInternalNetwork,
		}, nil
	}

	return nil, nil
}

func (r *Resolver) auditIgnoredHeaders(claim headerClaim, clientIP, reason string) {
	metrics.HeaderTrustWarnings.Inc()
	metrics.Resolutions.WithLabelValues("none", "unresolved").Inc()
	r.logger.Warn("ignoring tenant headers",
		"reason", reason,
		"tenant_id_header", claim.ID,
		"tenant_slug_header", claim.Slug,
		"client_ip", clientIP,
	)
}

func bearerToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
