// Package webhook implements verification of provider callback signatures.
//
// The scheme is the Stripe v1 format: the signature header carries
// "t=<unix>,v1=<hex>" where <hex> = HMAC-SHA256(secret, "<unix>.<payload>").
// Verification operates on the raw request bytes exactly as received; any
// re-serialization of the payload invalidates the digest.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the header the provider sends the signature in.
const SignatureHeader = "Stripe-Signature"

// ErrSignatureInvalid covers every rejection: missing or malformed header,
// unconfigured secret, stale timestamp, digest mismatch. Callers must treat
// all of them identically and never execute side effects.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// Verifier checks signature headers against a shared secret with a
// freshness tolerance on the embedded timestamp.
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify decides whether payload plus header constitute a valid, fresh
// signed message. An empty secret is a verification failure, not a bypass.
func (v *Verifier) Verify(payload []byte, header string) error {
	if v.secret == "" {
		return fmt.Errorf("%w: signing secret not configured", ErrSignatureInvalid)
	}
	if header == "" {
		return fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	timestamp, signatures, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	expected := ComputeSignature(timestamp, payload, v.secret)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching v1 signature", ErrSignatureInvalid)
}

// parseHeader extracts the timestamp and all v1 signatures from the header.
// Unknown schemes are ignored for forward compatibility.
func parseHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return 0, nil, fmt.Errorf("%w: malformed header element", ErrSignatureInvalid)
		}

		switch parts[0] {
		case "t":
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", ErrSignatureInvalid)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, parts[1])
		}
	}

	if timestamp < 0 {
		return 0, nil, fmt.Errorf("%w: missing timestamp", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: missing v1 signature", ErrSignatureInvalid)
	}

	return timestamp, signatures, nil
}

// ComputeSignature computes the hex HMAC-SHA256 digest of "<t>.<payload>".
func ComputeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces a signature header for payload, signed at the current time.
// The counterpart to Verify, used by tests and local tooling.
func Sign(payload []byte, secret string) string {
	return SignWithTimestamp(payload, secret, time.Now().Unix())
}

func SignWithTimestamp(payload []byte, secret string, timestamp int64) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, ComputeSignature(timestamp, payload, secret))
}
