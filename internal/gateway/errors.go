// Package gateway wraps all outbound traffic to the remote reception
// backend. It attaches the station's bearer token, normalizes the backend's
// inconsistent response shapes into one envelope, and classifies failures
// into the error types below so higher layers can react uniformly.
package gateway

import (
	"errors"
	"fmt"
)

// ErrNetwork is returned for connectivity, DNS, and timeout failures. The
// message is operator-facing and surfaced verbatim.
var ErrNetwork = errors.New("Unable to connect to server")

// ErrGuestNotFound is returned when a lookup succeeds but the backend
// reports no guest for the given UID. Handlers translate this into 404.
var ErrGuestNotFound = errors.New("Guest not found.")

// HTTPError means the backend rejected the request. It carries the
// backend-supplied message when one was present in the response body.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// SchemaError means a response arrived but failed structural expectations,
// such as a login success without a token.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return e.Reason
}
