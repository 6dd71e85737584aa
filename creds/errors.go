package creds

import "errors"

// Sentinel errors for credential handling.
var (
	// ErrMissingKey indicates an empty key, token, or header name.
	ErrMissingKey = errors.New("creds: missing credential material")

	// ErrMissingSigningKey indicates a service token with no signing key.
	ErrMissingSigningKey = errors.New("creds: missing signing key")

	// ErrSigningFailed indicates token minting failed.
	ErrSigningFailed = errors.New("creds: token signing failed")
)
