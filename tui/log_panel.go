// ABOUTME: Implements a scrollable activity log using the bubbles viewport component.
// ABOUTME: Entries are derived from successive session views: connection changes, node status changes and errors.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

// EntryKind classifies an activity entry for coloring.
type EntryKind int

const (
	EntryInfo EntryKind = iota
	EntrySuccess
	EntryError
)

// LogEntry is one line of the activity log.
type LogEntry struct {
	Time time.Time
	Kind EntryKind
	Text string
}

// LogPanelModel is a scrollable activity log.
type LogPanelModel struct {
	entries  []LogEntry
	max      int
	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewLogPanelModel creates a log panel with a maximum number of entries.
// If maxEntries is <= 0, it defaults to 200.
func NewLogPanelModel(maxEntries int) LogPanelModel {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return LogPanelModel{
		entries:  make([]LogEntry, 0, maxEntries),
		max:      maxEntries,
		viewport: viewport.New(80, 10),
	}
}

// Append adds an entry, evicting the oldest one at capacity.
func (m *LogPanelModel) Append(e LogEntry) {
	if len(m.entries) >= m.max {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, e)
	m.syncViewport()
}

// Len returns the number of entries in the log.
func (m LogPanelModel) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries.
func (m LogPanelModel) Entries() []LogEntry {
	return append([]LogEntry(nil), m.entries...)
}

// SetFocused sets whether this panel accepts scroll keys.
func (m *LogPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// ScrollUp scrolls back by n lines.
func (m *LogPanelModel) ScrollUp(n int) {
	m.viewport.ScrollUp(n)
}

// ScrollDown scrolls forward by n lines.
func (m *LogPanelModel) ScrollDown(n int) {
	m.viewport.ScrollDown(n)
}

// SetSize sets the available dimensions and updates the viewport.
func (m *LogPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Reserve space for the border (2 lines top/bottom) and title (1 line)
	m.viewport.Width = max(1, w-2)
	m.viewport.Height = max(1, h-3)
	m.syncViewport()
}

// View renders the log panel.
func (m LogPanelModel) View() string {
	content := "No activity yet"
	if len(m.entries) > 0 {
		content = m.viewport.View()
	}
	rendered := TitleStyle.Render("ACTIVITY") + "\n" + content

	style := BorderStyle
	if m.focused {
		style = FocusedBorderStyle
	}
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(rendered)
}

func (m *LogPanelModel) syncViewport() {
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, formatEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func formatEntry(e LogEntry) string {
	ts := LogTimestampStyle.Render(e.Time.Format("15:04:05"))
	return ts + " " + entryStyle(e.Kind).Render(e.Text)
}

func entryStyle(k EntryKind) lipgloss.Style {
	switch k {
	case EntrySuccess:
		return LogSuccessStyle
	case EntryError:
		return LogErrorStyle
	default:
		return LogEventStyle
	}
}

// diffViews describes what changed between two views.
func diffViews(prev, next session.View, now time.Time) []LogEntry {
	var out []LogEntry
	add := func(kind EntryKind, format string, args ...any) {
		out = append(out, LogEntry{Time: now, Kind: kind, Text: fmt.Sprintf(format, args...)})
	}

	if prev.Connected != next.Connected {
		if next.Connected {
			add(EntrySuccess, "connected (%d nodes)", len(next.Nodes))
		} else {
			add(EntryError, "disconnected, retrying")
		}
	}
	if prev.Playback.Loaded != next.Playback.Loaded {
		if next.Playback.Loaded {
			add(EntryInfo, "playback loaded")
		} else {
			add(EntryInfo, "playback unloaded")
		}
	} else if !prev.Playback.Done && next.Playback.Done && next.Playback.Loaded {
		add(EntrySuccess, "playback done")
	}
	if prev.Recording.Started != next.Recording.Started {
		add(EntryInfo, "recording %s", onOff(next.Recording.Started))
	}

	before := make(map[string]string, len(prev.Nodes))
	for _, n := range prev.Nodes {
		before[n.Key] = n.Status.String()
	}
	for _, n := range next.Nodes {
		old, seen := before[n.Key]
		switch {
		case !seen && prev.Connected == next.Connected && prev.Playback.Loaded == next.Playback.Loaded:
			add(EntryInfo, "%s added", n.Key)
		case seen && old != n.Status.String():
			add(EntryInfo, "%s %s -> %s", n.Key, old, n.Status)
		}
	}

	if next.LastError != "" && next.LastError != prev.LastError {
		add(EntryError, "%s", next.LastError)
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "started"
	}
	return "stopped"
}
