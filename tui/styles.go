// ABOUTME: Defines lipgloss styles for the dashboard panels, node states and tag flags.
// ABOUTME: Provides StyleForStatus to map node states to their display styles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/LogicalOverflow/go-astiencoder/graph"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))
	FocusedBorderStyle = BorderStyle.
				BorderForeground(lipgloss.Color("170"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Node states
	UnsetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	StartedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	RunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	PausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	StoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	InactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Faint(true)

	SelectedStyle = lipgloss.NewStyle().Reverse(true)

	// Tag flags
	TagShowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	TagHideStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Strikethrough(true)

	// Activity log
	LogTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogEventStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	LogSuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	ErrorBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// StyleForStatus returns the style for a node state.
func StyleForStatus(s graph.Status) lipgloss.Style {
	switch s {
	case graph.StatusStarted:
		return StartedStyle
	case graph.StatusRunning:
		return RunningStyle
	case graph.StatusPaused:
		return PausedStyle
	case graph.StatusStopped:
		return StoppedStyle
	default:
		return UnsetStyle
	}
}
