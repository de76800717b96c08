// ABOUTME: Status values a pipeline node reports through the engine's event stream.
// ABOUTME: A node's status also doubles as one of its tags, so the tag set indexes nodes by status.
package graph

// Status is the execution state of a node as reported by the engine.
// Values the dashboard does not know are kept verbatim.
type Status string

const (
	StatusUnset   Status = ""
	StatusStarted Status = "started"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// String returns the status name, or "unset" for the zero value.
func (s Status) String() string {
	if s == StatusUnset {
		return "unset"
	}
	return string(s)
}

// IsSet reports whether the status carries a value.
func (s Status) IsSet() bool {
	return s != StatusUnset
}
