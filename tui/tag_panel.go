// ABOUTME: Bubble Tea sub-model listing every tag with its show and hide flags.
// ABOUTME: The selected tag is the target of the show/hide toggles bound in the app.
package tui

import (
	"strings"

	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// TagPanelModel displays the tag filters.
type TagPanelModel struct {
	tags    []graph.Tag
	cursor  int
	focused bool
	width   int
	height  int
}

// NewTagPanelModel creates an empty tag list.
func NewTagPanelModel() TagPanelModel {
	return TagPanelModel{}
}

// SetTags replaces the listed tags, keeping the cursor on the same name when present.
func (m *TagPanelModel) SetTags(tags []graph.Tag) {
	prev, hadPrev := m.Selected()
	m.tags = tags
	m.cursor = min(m.cursor, max(0, len(tags)-1))
	if hadPrev {
		for i, t := range tags {
			if t.Name == prev.Name {
				m.cursor = i
				break
			}
		}
	}
}

// Selected returns the tag under the cursor.
func (m TagPanelModel) Selected() (graph.Tag, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tags) {
		return graph.Tag{}, false
	}
	return m.tags[m.cursor], true
}

// MoveCursor moves the selection by delta, clamped to the list.
func (m *TagPanelModel) MoveCursor(delta int) {
	m.cursor = max(0, min(len(m.tags)-1, m.cursor+delta))
}

// SetFocused sets whether this panel accepts cursor keys.
func (m *TagPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// SetSize sets the available dimensions.
func (m *TagPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the tag list.
func (m TagPanelModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("TAGS"))
	b.WriteString("\n")
	if len(m.tags) == 0 {
		b.WriteString(UnsetStyle.Render("No tags"))
	}
	for i, t := range m.tags {
		b.WriteString(m.renderTag(i, t))
		b.WriteString("\n")
	}

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
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m TagPanelModel) renderTag(i int, t graph.Tag) string {
	mark, style := "   ", ValueStyle
	switch {
	case t.Show:
		mark, style = "[+]", TagShowStyle
	case t.Hide:
		mark, style = "[-]", TagHideStyle
	}
	if m.focused && i == m.cursor {
		style = style.Inherit(SelectedStyle)
	}
	return style.Render(mark + " " + t.Name)
}
