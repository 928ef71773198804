package token

import (
	"errors"
	"fmt"
)

// Kind classifies a verification failure. Claim failures stay
// distinguishable in logs even though they collapse to a single outward
// 401.
type Kind int

const (
	KindMalformed Kind = iota
	KindBadSignature
	KindKeyUnavailable
	KindInvalidAudience
	KindInvalidIssuer
	KindExpired
	KindInvalidTokenType
	KindNotYetValid
)

// String returns a short log-friendly name for the failure kind
func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed_token"
	case KindBadSignature:
		return "bad_signature"
	case KindKeyUnavailable:
		return "key_unavailable"
	case KindInvalidAudience:
		return "invalid_audience"
	case KindInvalidIssuer:
		return "invalid_issuer"
	case KindExpired:
		return "expired"
	case KindInvalidTokenType:
		return "invalid_token_type"
	case KindNotYetValid:
		return "not_yet_valid"
	}
	return "unknown"
}

// VerificationError is a typed verification failure. The underlying reason
// is preserved for logging but never surfaced to the client.
type VerificationError struct {
	Kind Kind
	Err  error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token verification failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("token verification failed (%s)", e.Kind)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// newError builds a VerificationError with no underlying cause
func newError(kind Kind) *VerificationError {
	return &VerificationError{Kind: kind}
}

// wrapError builds a VerificationError preserving the underlying cause
func wrapError(kind Kind, err error) *VerificationError {
	return &VerificationError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error returned by a Verifier.
// Unknown errors report as malformed.
func KindOf(err error) (Kind, bool) {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return KindMalformed, false
}
