package trust

import "net/http"

// Tenant-identifying headers. Emitted for downstream hops after resolution;
// never trusted when received from outside the trust boundary unless the
// resolver's mode validates them.
const (
	HeaderTenantID     = "X-Tenant-Id"
	HeaderTenantSlug   = "X-Tenant-Slug"
	HeaderTenantHost   = "X-Tenant-Host"
	HeaderTenantStatus = "X-Tenant-Status"

	// Signature headers, consumed only in signed mode.
	HeaderSignature   = "X-Tenant-Signature"
	HeaderSignatureTS = "X-Tenant-Signature-Ts"
)

// headerClaim is the raw tenant signal carried in request headers.
type headerClaim struct {
	ID          string
	Slug        string
	Host        string
	Signature   string
	SignatureTS string
}

func extractHeaderClaim(h http.Header) headerClaim {
	return headerClaim{
		ID:          h.Get(HeaderTenantID),
		Slug:        h.Get(HeaderTenantSlug),
		Host:        h.Get(HeaderTenantHost),
		Signature:   h.Get(HeaderSignature),
		SignatureTS: h.Get(HeaderSignatureTS),
	}
}

// present reports whether any tenant-identifying header was supplied.
func (c headerClaim) present() bool {
	return c.ID != "" || c.Slug != "" || c.Host != ""
}
