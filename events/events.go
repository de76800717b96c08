// ABOUTME: Event names emitted by the engine and the payload shapes that carry them.
// ABOUTME: Names are accepted with or without the engine's "astiencoder." namespace.
package events

import (
	"encoding/json"
	"strings"

	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// Prefix is the namespace the engine puts in front of its event names.
const Prefix = "astiencoder."

// Node lifecycle events.
const (
	NodeStarted   = "node.started"
	NodeContinued = "node.continued"
	NodePaused    = "node.paused"
	NodeStopped   = "node.stopped"
	NodeStats     = "node.stats"
)

// Normalize strips the engine namespace from an event name.
func Normalize(name string) string {
	return strings.TrimPrefix(name, Prefix)
}

// StatsPayload carries a stat update for one node.
type StatsPayload struct {
	Name  string              `json:"name"`
	Stats []graph.StatPayload `json:"stats"`
}

// Item is one historical event in a playback batch or one live frame.
type Item struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}
