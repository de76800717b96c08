// ABOUTME: Paths and JSON bodies of the engine's HTTP API as consumed by the dashboard.
// ABOUTME: Shared by the session, the playback controller and the fake engine used in tests.
package api

import (
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// Engine endpoints.
const (
	PathOK              = "/ok"
	PathWelcome         = "/welcome"
	PathRecordingStart  = "/recording/start"
	PathRecordingStop   = "/recording/stop"
	PathRecordingExport = "/recording/export"
	PathPlaybackLoad    = "/playback/load"
	PathPlaybackUnload  = "/playback/unload"
	PathPlaybackNext    = "/playback/next"
	PathWebSocket       = "/websocket"
)

// PlaybackFileField is the multipart field carrying an uploaded recording.
const PlaybackFileField = "file"

// Welcome is the body of GET /welcome. A nil Workflow means no live session.
type Welcome struct {
	Recording bool      `json:"recording"`
	Workflow  *Workflow `json:"workflow,omitempty"`
}

// Workflow lists the nodes of the live pipeline.
type Workflow struct {
	Name  string              `json:"name,omitempty"`
	Nodes []graph.NodePayload `json:"nodes"`
}

// Snapshot is a full point-in-time listing of nodes.
type Snapshot struct {
	Nodes []graph.NodePayload `json:"nodes"`
}

// Batch is one step of a recorded session returned by GET /playback/next.
type Batch struct {
	Done  bool          `json:"done"`
	Items []events.Item `json:"items"`
}
