// ABOUTME: Bubble Tea sub-model showing the selected node: description, edges, tags and stats.
// ABOUTME: Content scrolls inside a viewport when it outgrows the panel.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// DetailPanelModel displays the selected node.
type DetailPanelModel struct {
	node     *graph.NodeSnapshot
	viewport viewport.Model
	width    int
	height   int
}

// NewDetailPanelModel creates a panel with no node.
func NewDetailPanelModel() DetailPanelModel {
	return DetailPanelModel{viewport: viewport.New(40, 10)}
}

// SetNode shows n.
func (m *DetailPanelModel) SetNode(n graph.NodeSnapshot) {
	m.node = &n
	m.viewport.SetContent(renderDetail(n))
}

// Clear removes the node.
func (m *DetailPanelModel) Clear() {
	m.node = nil
	m.viewport.SetContent("")
}

// SetSize sets the available dimensions.
func (m *DetailPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(1, w-2)
	m.viewport.Height = max(1, h-3)
}

// View renders the panel.
func (m DetailPanelModel) View() string {
	content := "No node selected"
	if m.node != nil {
		content = m.viewport.View()
	}
	rendered := TitleStyle.Render("DETAIL") + "\n" + content

	style := BorderStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(rendered)
}

func renderDetail(n graph.NodeSnapshot) string {
	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}

	row("Node", n.Label)
	row("Name", n.Name)
	row("Status", StyleForStatus(n.Status).Render(n.Status.String()))
	row("Description", n.Description)
	row("Parents", strings.Join(n.Parents, ", "))
	row("Children", strings.Join(n.Children, ", "))
	row("Tags", strings.Join(n.Tags, ", "))
	if !n.Active {
		row("Active", "no")
	}

	if len(n.Stats) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Stats"))
		b.WriteString("\n")
		for _, s := range n.Stats {
			b.WriteString(formatStat(s))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatStat renders a stat as "label: value unit".
func formatStat(s graph.Stat) string {
	value := s.Value
	if s.Unit != "" {
		value += " " + s.Unit
	}
	return fmt.Sprintf("%s%s", LabelStyle.Render(s.Label), ValueStyle.Render(value))
}
