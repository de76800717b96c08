// ABOUTME: Sentinel errors used internally by the router to classify dropped events.
package events

import "errors"

var (
	errUnknownEvent = errors.New("unknown event")
	errMissingNode  = errors.New("payload does not name a node")
)
