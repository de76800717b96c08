// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps session output for the tea.Msg interface.
package tui

import (
	"time"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

// ViewMsg carries the latest session view.
type ViewMsg struct {
	View session.View
}

// ViewsClosedMsg signals that the session stopped publishing.
type ViewsClosedMsg struct{}

// ActionResultMsg reports the outcome of a submitted session command.
type ActionResultMsg struct {
	Action string
	Err    error
}

// TickMsg is sent periodically to animate the spinner.
type TickMsg struct {
	Time time.Time
}
