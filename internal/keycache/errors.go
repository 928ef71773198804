package keycache

import (
	"errors"
)

// Custom error types for the keycache package
var (
	// ErrKeyFetch indicates the provider's key set could not be retrieved
	ErrKeyFetch = errors.New("Failed to fetch signing keys")

	// ErrEmptyKeySet indicates the provider published no keys
	ErrEmptyKeySet = errors.New("Identity provider published an empty key set")

	// ErrUnsupportedKeyFormat indicates a key shape we cannot convert
	ErrUnsupportedKeyFormat = errors.New("Unsupported signing key format")
)
