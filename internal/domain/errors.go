package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrStorage marks a failed call to the document store. Retryable by the caller.
	ErrStorage = errors.New("storage unavailable")
	// ErrDelivery marks a mail relay failure.
	ErrDelivery = errors.New("delivery failed")
	// ErrAuthProvider marks a rejection by the identity provider (duplicate account, bad credentials).
	ErrAuthProvider = errors.New("identity provider rejected the request")
	// ErrTooManyRequests marks a throttled issuance or a locked-out verification.
	ErrTooManyRequests = errors.New("too many requests")
)

// RetryAfterError is a throttling error that tells the caller when to try again.
type RetryAfterError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%s, retry in %s", e.Reason, e.RetryAfter.Round(time.Second))
}

func (e *RetryAfterError) Unwrap() error { return ErrTooManyRequests }
