// ABOUTME: Bubble Tea sub-model listing the engine's nodes with status markers and a selection cursor.
// ABOUTME: Only visible nodes are listed, sorted by label; inactive nodes are dimmed and running ones spin.
package tui

import (
	"fmt"
	"strings"

	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// GraphPanelModel displays the node list.
type GraphPanelModel struct {
	nodes        []graph.NodeSnapshot
	total        int
	selected     string
	cursor       int
	spinnerIndex int
	focused      bool
	width        int
	height       int
}

// NewGraphPanelModel creates an empty node list.
func NewGraphPanelModel() GraphPanelModel {
	return GraphPanelModel{}
}

// SetNodes replaces the listed nodes, keeping the selection on the same key
// when it is still visible.
func (m *GraphPanelModel) SetNodes(all []graph.NodeSnapshot) {
	m.total = len(all)
	m.nodes = make([]graph.NodeSnapshot, 0, len(all))
	for _, n := range all {
		if n.Visible() {
			m.nodes = append(m.nodes, n)
		}
	}
	m.cursor = 0
	for i, n := range m.nodes {
		if n.Key == m.selected {
			m.cursor = i
			break
		}
	}
	m.syncSelected()
}

// Selected returns the node under the cursor.
func (m GraphPanelModel) Selected() (graph.NodeSnapshot, bool) {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return graph.NodeSnapshot{}, false
	}
	return m.nodes[m.cursor], true
}

// Visible returns the number of listed nodes.
func (m GraphPanelModel) Visible() int {
	return len(m.nodes)
}

// MoveCursor moves the selection by delta, clamped to the list.
func (m *GraphPanelModel) MoveCursor(delta int) {
	m.cursor = max(0, min(len(m.nodes)-1, m.cursor+delta))
	m.syncSelected()
}

func (m *GraphPanelModel) syncSelected() {
	if n, ok := m.Selected(); ok {
		m.selected = n.Key
	}
}

// AdvanceSpinner increments the spinner frame index.
func (m *GraphPanelModel) AdvanceSpinner() {
	m.spinnerIndex++
}

// SetFocused sets whether this panel accepts cursor keys.
func (m *GraphPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// SetSize sets the available dimensions.
func (m *GraphPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the node list.
func (m GraphPanelModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("NODES %d/%d", len(m.nodes), m.total)))
	b.WriteString("\n")

	if len(m.nodes) == 0 {
		b.WriteString(UnsetStyle.Render("No nodes"))
	}

	rows := m.height - 3
	start := 0
	if rows > 0 && m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(m.nodes); i++ {
		if rows > 0 && i-start >= rows {
			break
		}
		b.WriteString(m.renderNode(i))
		b.WriteString("\n")
	}

	style := BorderStyle
	if m.focused {
		style = FocusedBorderStyle
	}
	if m.width > 0 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m GraphPanelModel) renderNode(i int) string {
	n := m.nodes[i]
	line := fmt.Sprintf("%s %s (%s)", StatusIcon(n.Status), n.Label, n.Key)
	if n.Status == graph.StatusRunning {
		line += " " + SpinnerFrames[m.spinnerIndex%len(SpinnerFrames)]
	}

	style := StyleForStatus(n.Status)
	if !n.Active {
		style = InactiveStyle
	}
	if m.focused && i == m.cursor {
		style = style.Inherit(SelectedStyle)
	}
	return style.Render(line)
}
