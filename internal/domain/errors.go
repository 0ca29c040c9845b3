package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	// ErrUnavailable marks transient backend failures. Callers may retry;
	// every other sentinel above is terminal for the attempt.
	ErrUnavailable = errors.New("temporarily unavailable")
)
