// Package common defines shared constants and sentinel errors used across
// the server, the transports and the operator CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// ErrStorage marks a failure of the physical file storage. Messages built
	// on top of it may carry addresses and must not be shown to end users.
	ErrStorage = errors.New("storage error")

	// ErrTimeout marks a transient failure caused by a deadline or a
	// cancelled context. It is never a definitive not-found/invalid result.
	ErrTimeout = errors.New("operation timed out")

	// Validation errors.
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidOwner = errors.New("invalid owner reference")
	ErrInvalidRole  = errors.New("invalid role")

	// Auth errors (invalid or malformed token). The specific token errors
	// below all wrap ErrInvalidToken.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenMalformed = &tokenError{reason: "token malformed"}
	ErrTokenSignature = &tokenError{reason: "token signature mismatch"}
	ErrTokenExpired   = &tokenError{reason: "token expired"}
)

type tokenError struct {
	reason string
}

func (e *tokenError) Error() string { return e.reason }

func (e *tokenError) Unwrap() error { return ErrInvalidToken }
