package domain

import "errors"

// Sentinel errors shared across the registry, catalog and service layers.
// Callers match with errors.Is.
var (
	// ErrNotFound means the requested key is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrMalformedToken means a deep-link token is not valid codec output.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidValue means a command argument or setting is out of range.
	ErrInvalidValue = errors.New("invalid value")

	// ErrProtectedEntity means the operation targeted the owner account.
	ErrProtectedEntity = errors.New("protected entity")
)
