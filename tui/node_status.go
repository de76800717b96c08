// ABOUTME: Status markers for engine node states in the TUI.
// ABOUTME: Provides StatusIcon and spinner animation frames for running nodes.
package tui

import "github.com/LogicalOverflow/go-astiencoder/graph"

// StatusIcon returns a bracket-style status marker.
func StatusIcon(s graph.Status) string {
	switch s {
	case graph.StatusStarted:
		return "[>]"
	case graph.StatusRunning:
		return "[~]"
	case graph.StatusPaused:
		return "[|]"
	case graph.StatusStopped:
		return "[.]"
	default:
		return "[ ]"
	}
}

// SpinnerFrames contains the Braille-dot animation frames shown next to
// running nodes.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
