package alexa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// SignatureHeader carries the delivery signature on inbound requests.
const SignatureHeader = "X-Signature-256"

// ErrVerificationFailed reports a delivery whose signature did not check out.
// Verification runs before any state is touched.
var ErrVerificationFailed = errors.New("request verification failed")

// Verifier authenticates an inbound delivery from the voice platform.
// The platform's own certificate-chain validation is a front-door concern;
// this interface is the narrow contract the pipeline depends on.
type Verifier interface {
	Verify(headers http.Header, rawBody []byte) error
}

// HMACVerifier validates deliveries signed with a shared secret.
//
// The signature header is expected in the format "sha256=<lowercase-hex>".
// Comparison is performed with hmac.Equal (constant-time) to prevent timing
// side-channel attacks.
type HMACVerifier struct {
	Secret []byte
}

// Verify checks the HMAC-SHA256 signature of rawBody.
func (v *HMACVerifier) Verify(headers http.Header, rawBody []byte) error {
	sigHeader := headers.Get(SignatureHeader)

	const prefix = "sha256="
	if !strings.HasPrefix(sigHeader, prefix) {
		return fmt.Errorf("%w: missing or malformed signature header", ErrVerificationFailed)
	}
	expected, err := hex.DecodeString(sigHeader[len(prefix):])
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrVerificationFailed)
	}

	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return fmt.Errorf("%w: signature mismatch", ErrVerificationFailed)
	}
	return nil
}

// NoopVerifier accepts every delivery.  Used in development when no shared
// secret is configured; the config loader warns loudly about it.
type NoopVerifier struct{}

// Verify always succeeds.
func (NoopVerifier) Verify(http.Header, []byte) error { return nil }
