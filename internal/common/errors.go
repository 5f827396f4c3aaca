// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUserBanned         = errors.New("user is banned")

	// Credential errors (password or hash encoding that cannot be processed).
	ErrMalformedCredential = errors.New("malformed credential")

	// Token verification errors. Service callers receive them joined with
	// ErrorUnauthorized.
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
	ErrTokenRevoked      = errors.New("token revoked")

	// ErrStoreUnavailable marks a timeout or connection failure talking to the
	// revocation backend. It is transient: callers may retry with backoff.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)
