package common

import "errors"

// Callers should match these with errors.Is; they are usually wrapped.
var (
	// ExternalData is missing a mandatory field or carries a malformed one.
	ErrValidation = errors.New("validation error")

	// Any failure to open an envelope: wrong key, tampering, malformed input.
	ErrDecryption = errors.New("decryption failed")

	// The configured encryption secret is not a 256-bit base64url key.
	ErrInvalidSecret = errors.New("invalid secret")

	ErrNotFound = errors.New("not found")

	// Storage, registry or hub could not be reached or answered badly.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
