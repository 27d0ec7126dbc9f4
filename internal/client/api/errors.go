package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks 401-class responses. By the time the caller sees
	// it, the session has already been cleared and invalidation broadcast.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable marks transport failures: the request never produced a
	// response (connection refused, DNS, timeout). Session state is left
	// untouched and the call may be retried.
	ErrUnavailable = errors.New("server unavailable")
)

// StatusError carries a non-2xx response with the server's human-readable
// reason, so the UI can render a specific message.
type StatusError struct {
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Reason)
}
