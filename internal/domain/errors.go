package domain

import "errors"

// Sentinel errors for cross-provider error classification.
// Providers should wrap these so the CLI can handle error categories
// uniformly without importing provider-specific SDKs.
//
//	return fmt.Errorf("failed to disable device: %w", domain.ErrNotFound)
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials, or a token that lacks
	// the scope required for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a transient server-side failure.
	ErrUnavailable = errors.New("service unavailable")

	// ErrConflict indicates a state or uniqueness conflict, such as
	// an operation on a device in a transitional state.
	ErrConflict = errors.New("conflict")
)
