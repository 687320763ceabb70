package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// ErrBadRequest marks malformed client input (bad email syntax, bad code format).
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidCode covers an absent, mismatched, or expired verification code.
	// The three cases are deliberately indistinguishable to the caller.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrNotFound means no record exists for the email.
	ErrNotFound = errors.New("not found")
	// ErrNoDocument means the record exists but carries no document payload.
	ErrNoDocument = errors.New("no document stored")
	// ErrDelivery marks an upstream mail failure. Not retried; the caller must re-initiate.
	ErrDelivery = errors.New("delivery failed")
)
