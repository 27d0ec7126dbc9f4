// Package common defines shared constants and sentinel errors used across
// the spendtrack client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Storage-level degradation. Never surfaced to the user; the storage
	// layer falls back to the ephemeral tier instead.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrWriteMismatch      = errors.New("storage write verification mismatch")

	// Session-level errors.
	ErrCorruptSession = errors.New("corrupt session data")
	ErrNoSession      = errors.New("no session")

	// Auth flow errors.
	ErrUnauthorized        = errors.New("unauthorized")
	ErrOperationInProgress = errors.New("operation in progress")
)
