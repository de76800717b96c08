// ABOUTME: Implements a single-line status bar for the bottom of the TUI.
// ABOUTME: Shows connection, recording and playback state, visible node count, search query, tag filtering and the last error.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

// StatusBarModel displays session status in a single line.
type StatusBarModel struct {
	engine  string
	view    session.View
	visible int
	width   int
}

// NewStatusBarModel creates a status bar for the given engine address.
func NewStatusBarModel(engine string) StatusBarModel {
	return StatusBarModel{engine: engine}
}

// SetView updates the bar from a session view and the visible node count.
func (m *StatusBarModel) SetView(v session.View, visible int) {
	m.view = v
	m.visible = visible
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	conn := "offline"
	if m.view.Connected {
		conn = "live"
	}

	parts := []string{
		fmt.Sprintf("Engine: %s (%s)", m.engine, conn),
		"Recording: " + recordingLabel(m.view.Recording),
	}
	if pb := playbackLabel(m.view); pb != "" {
		parts = append(parts, "Playback: "+pb)
	}
	parts = append(parts, fmt.Sprintf("%d/%d nodes", m.visible, len(m.view.Nodes)))
	if m.view.Query != "" {
		parts = append(parts, fmt.Sprintf("Search: %q", m.view.Query))
	}
	if m.view.TagsFiltered {
		parts = append(parts, "Tags: filtered")
	}

	content := strings.Join(parts, " | ")
	if m.view.LastError != "" {
		content += " " + ErrorBadgeStyle.Render("!")
	}

	style := StatusBarStyle.Width(m.width)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}

func recordingLabel(r session.Recording) string {
	switch {
	case r.Disabled:
		return "unavailable"
	case r.Started:
		return "on"
	default:
		return "off"
	}
}

func playbackLabel(v session.View) string {
	switch {
	case !v.Playback.Loaded:
		return ""
	case v.AdvanceInFlight:
		return "loading"
	case v.Playback.Done:
		return "done"
	default:
		return "ready (→ for next)"
	}
}
