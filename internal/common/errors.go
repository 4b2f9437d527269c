// Package common defines shared constants and sentinel errors used across
// client and server layers of minsend. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Codec errors.
	ErrMalformedFrame = errors.New("malformed frame")

	// Secure channel errors (bad or missing peer public key).
	ErrHandshake = errors.New("handshake failed")

	// Registry misuse.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrIdentityNotFound  = errors.New("identity not found")

	// Session errors. Protocol errors are reported in-band and the session
	// continues; transport errors end the session.
	ErrProtocol  = errors.New("protocol error")
	ErrTransport = errors.New("transport error")
)
