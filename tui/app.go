// ABOUTME: Top-level Bubble Tea AppModel composing the node, tag, detail and activity panels into one layout.
// ABOUTME: Renders session views as they arrive and turns key presses into session commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

// FocusTarget indicates which panel currently has keyboard focus.
type FocusTarget int

const (
	FocusNodes FocusTarget = iota
	FocusTags
	FocusLog
)

// inputMode says what the text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputLoad
)

const tickInterval = 100 * time.Millisecond

// AppModel is the top-level Bubble Tea model.
type AppModel struct {
	graph     GraphPanelModel
	detail    DetailPanelModel
	tags      TagPanelModel
	log       LogPanelModel
	statusBar StatusBarModel
	input     textinput.Model
	keys      KeyMap

	ctl   Controller
	views <-chan session.View
	ctx   context.Context

	view     session.View
	haveView bool
	mode     inputMode
	focus    FocusTarget
	done     bool
	width    int
	height   int
}

// NewAppModel creates an AppModel driving ctl and rendering the views
// delivered on views. engine is the address shown in the status bar.
func NewAppModel(ctx context.Context, ctl Controller, views <-chan session.View, engine string) AppModel {
	ti := textinput.New()
	ti.CharLimit = 256

	m := AppModel{
		graph:     NewGraphPanelModel(),
		detail:    NewDetailPanelModel(),
		tags:      NewTagPanelModel(),
		log:       NewLogPanelModel(200),
		statusBar: NewStatusBarModel(engine),
		input:     ti,
		keys:      DefaultKeyMap(),
		ctl:       ctl,
		views:     views,
		ctx:       ctx,
		focus:     FocusNodes,
	}
	m.graph.SetFocused(true)
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		WaitForViewCmd(m.views),
		TickCmd(tickInterval),
	)
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewMsg:
		return m.handleView(msg)

	case ViewsClosedMsg:
		m.done = true
		return m, tea.Quit

	case ActionResultMsg:
		return m.handleActionResult(msg)

	case TickMsg:
		m.graph.AdvanceSpinner()
		if m.done {
			return m, nil
		}
		return m, TickCmd(tickInterval)

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < 40 || m.height < 12 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x12.", m.width, m.height)
	}

	reserved := 1
	if m.mode != inputNone {
		reserved++
	}
	topHeight := max(5, (m.height-reserved)*55/100)
	bottomHeight := max(5, m.height-reserved-topHeight)
	leftWidth := max(20, m.width*60/100)
	rightWidth := max(10, m.width-leftWidth)

	m.graph.SetSize(leftWidth, topHeight)
	m.tags.SetSize(rightWidth, topHeight)
	m.detail.SetSize(leftWidth, bottomHeight)
	m.log.SetSize(rightWidth, bottomHeight)
	m.statusBar.SetWidth(m.width)

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.graph.View(), m.tags.View())
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, m.detail.View(), m.log.View())

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(bottom)
	b.WriteString("\n")
	if m.mode != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusBar.View())
	return b.String()
}

func (m AppModel) handleView(msg ViewMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	if m.haveView {
		for _, e := range diffViews(m.view, msg.View, now) {
			m.log.Append(e)
		}
	}
	m.view = msg.View
	m.haveView = true

	m.graph.SetNodes(msg.View.Nodes)
	m.tags.SetTags(msg.View.Tags)
	m.syncDetail()
	m.statusBar.SetView(msg.View, m.graph.Visible())

	return m, WaitForViewCmd(m.views)
}

func (m AppModel) handleActionResult(msg ActionResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Append(LogEntry{
			Time: time.Now(),
			Kind: EntryError,
			Text: fmt.Sprintf("%s: %v", msg.Action, msg.Err),
		})
	}
	return m, nil
}

func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Focus):
		m.setFocus(m.nextFocus())
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Search):
		return m.startInput(inputSearch, "search: ", m.view.Query)

	case key.Matches(msg, m.keys.Load):
		return m.startInput(inputLoad, "recording: ", "")

	case key.Matches(msg, m.keys.Next):
		return m, m.action("next", func(ctx context.Context) error {
			return m.ctl.PressKey(ctx, session.KeyRight)
		})

	case key.Matches(msg, m.keys.Unload):
		if !m.view.Playback.Loaded {
			return m, nil
		}
		return m, m.action("unload", m.ctl.UnloadPlayback)

	case key.Matches(msg, m.keys.TagsReset):
		return m, m.action("reset tags", m.ctl.ResetTags)

	case key.Matches(msg, m.keys.TagShow), key.Matches(msg, m.keys.TagHide):
		tag, ok := m.tags.Selected()
		if m.focus != FocusTags || !ok {
			return m, nil
		}
		if key.Matches(msg, m.keys.TagShow) {
			return m, m.action("show "+tag.Name, func(ctx context.Context) error {
				return m.ctl.ToggleTagShow(ctx, tag.Name)
			})
		}
		return m, m.action("hide "+tag.Name, func(ctx context.Context) error {
			return m.ctl.ToggleTagHide(ctx, tag.Name)
		})
	}
	return m, nil
}

func (m AppModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mode := m.mode
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopInput()
		if mode == inputSearch {
			return m, m.search("")
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		m.stopInput()
		if mode == inputLoad && value != "" {
			return m, m.action("load "+value, func(ctx context.Context) error {
				return m.ctl.LoadPlayback(ctx, value)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if mode == inputSearch && m.input.Value() != before {
		return m, tea.Batch(cmd, m.search(m.input.Value()))
	}
	return m, cmd
}

func (m AppModel) startInput(mode inputMode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m *AppModel) stopInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m AppModel) search(query string) tea.Cmd {
	return m.action("search", func(ctx context.Context) error {
		return m.ctl.Search(ctx, query)
	})
}

func (m AppModel) action(name string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return ActionCmd(name, func() error { return fn(ctx) })
}

func (m *AppModel) moveCursor(delta int) {
	switch m.focus {
	case FocusNodes:
		m.graph.MoveCursor(delta)
		m.syncDetail()
	case FocusTags:
		m.tags.MoveCursor(delta)
	case FocusLog:
		if delta < 0 {
			m.log.ScrollUp(-delta)
		} else {
			m.log.ScrollDown(delta)
		}
	}
}

func (m *AppModel) syncDetail() {
	if n, ok := m.graph.Selected(); ok {
		m.detail.SetNode(n)
	} else {
		m.detail.Clear()
	}
}

func (m *AppModel) setFocus(f FocusTarget) {
	m.focus = f
	m.graph.SetFocused(f == FocusNodes)
	m.tags.SetFocused(f == FocusTags)
	m.log.SetFocused(f == FocusLog)
}

// nextFocus cycles nodes, tags, log.
func (m AppModel) nextFocus() FocusTarget {
	switch m.focus {
	case FocusNodes:
		return FocusTags
	case FocusTags:
		return FocusLog
	default:
		return FocusNodes
	}
}
