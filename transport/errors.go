// ABOUTME: Sentinel and typed errors returned by the transport layer.
// ABOUTME: StatusError carries the normalized body of a non-2xx engine response.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates a send was attempted without an open socket.
	ErrNotConnected = errors.New("socket not connected")

	// ErrInvalidBaseURL indicates the engine address cannot be used.
	ErrInvalidBaseURL = errors.New("invalid engine base url")
)

// StatusError is returned by Client.Do for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Data is the parsed body, or nil when it was empty or not JSON.
	Data json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}
