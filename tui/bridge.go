// ABOUTME: Bridge connecting the session actor to the Bubble Tea message loop.
// ABOUTME: Provides tea.Cmd factories for view delivery, session commands and ticks.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

// Controller is the subset of the session the TUI drives.
type Controller interface {
	Search(ctx context.Context, query string) error
	ToggleTagShow(ctx context.Context, name string) error
	ToggleTagHide(ctx context.Context, name string) error
	ResetTags(ctx context.Context) error
	PressKey(ctx context.Context, k session.Key) error
	LoadPlayback(ctx context.Context, path string) error
	UnloadPlayback(ctx context.Context) error
}

// WaitForViewCmd blocks on the subscription and delivers the next view.
// The app re-issues it after every ViewMsg.
func WaitForViewCmd(views <-chan session.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return ViewsClosedMsg{}
		}
		return ViewMsg{View: v}
	}
}

// ActionCmd runs a session command off the Bubble Tea goroutine.
func ActionCmd(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Action: action, Err: fn()}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
