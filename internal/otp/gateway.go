// Package otp abstracts the one-time-password provider behind two
// operations: issue a code for a mobile number and verify a submitted code
// against the opaque session the issue step returned. Session lifecycle
// (expiry, single use) belongs to the provider, not to callers.
package otp

import (
	"context"
	"errors"
)

var (
	// ErrDeliveryFailed indicates the provider could not issue or deliver a
	// code. The gateway never retries.
	ErrDeliveryFailed = errors.New("otp delivery failed")

	// ErrInvalidCode indicates the provider rejected the submitted code:
	// wrong, expired, or the session was already consumed.
	ErrInvalidCode = errors.New("otp code invalid or expired")
)

// Gateway issues and verifies one-time passwords.
type Gateway interface {
	// Send delivers a code to the mobile number and returns the opaque
	// session identifier the caller must present on verification.
	Send(ctx context.Context, mobile string) (string, error)

	// Verify checks the code against the session. A nil return is the only
	// success signal; ErrInvalidCode means rejection, anything else is a
	// provider failure.
	Verify(ctx context.Context, sessionID, code string) error
}
