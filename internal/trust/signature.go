package trust

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// MaxSignatureAge bounds how old a signed header timestamp may be. Replays
// outside this window are rejected.
const MaxSignatureAge = 5 * time.Minute

// HeaderSigner signs and verifies tenant header claims with HMAC-SHA256 over
// "tenantID:tenantSlug:timestamp".
type HeaderSigner struct {
	secret []byte
}

// NewHeaderSigner creates a signer. The secret must be non-empty.
func NewHeaderSigner(secret string) (*HeaderSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signed mode requires a tenant header secret", ErrConfig)
	}
	return &HeaderSigner{secret: []byte(secret)}, nil
}

// Sign produces the hex signature for a tenant claim at the given timestamp.
// Used by internal callers emitting trusted hop headers.
func (s *HeaderSigner) Sign(tenantID, tenantSlug string, ts time.Time) string {
	return s.compute(tenantID, tenantSlug, strconv.FormatInt(ts.Unix(), 10))
}

// VerifyClaim checks the signature and freshness of a header claim. The
// comparison is constant-time; a stale timestamp fails even with a valid
// signature.
func (s *HeaderSigner) VerifyClaim(tenantID, tenantSlug, tsHeader, signature string, now time.Time) error {
	if tsHeader == "" || signature == "" {
		return fmt.Errorf("%w: signature headers absent", ErrSignatureInvalid)
	}
	unix, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrSignatureInvalid)
	}
	ts := time.Unix(unix, 0)
	if now.Sub(ts) > MaxSignatureAge || ts.Sub(now) > MaxSignatureAge {
		return fmt.Errorf("%w: timestamp outside freshness window", ErrSignatureInvalid)
	}

	expected := s.compute(tenantID, tenantSlug, tsHeader)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrSignatureInvalid)
	}
	return nil
}

func (s *HeaderSigner) compute(tenantID, tenantSlug, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%s:%s", tenantID, tenantSlug, ts)
	return hex.EncodeToString(mac.Sum(nil))
}
