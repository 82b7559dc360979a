// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across transport/repository/service layers.
var (
	// ErrValidation indicates a client-side precondition failure; no request was sent.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the server rejected the session (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrRequestFailed indicates a non-2xx response other than 401/404; carries the server message.
	ErrRequestFailed = errors.New("request failed")

	// ErrTransport indicates a network-level failure with no server response.
	ErrTransport = errors.New("transport failure")

	// ErrInFlight indicates an operation was rejected because one is already outstanding
	// for the same project or section.
	ErrInFlight = errors.New("operation already in flight")
)
