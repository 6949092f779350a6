// ABOUTME: Top-level Bubble Tea AppModel that lays out the prompt, latest output, event log, and status bar.
// ABOUTME: Key bindings drive the session Controller; session snapshots flow back in through a subscription.
package tui

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
)

const keyHints = "enter start · esc stop · ctrl+l clear · tab example · pgup/pgdn scroll · ctrl+c quit"

// AppModel is the top-level Bubble Tea model for the stream console.
type AppModel struct {
	prompt    PromptModel
	output    OutputPanelModel
	events    EventLogModel
	statusBar StatusBarModel

	ctrl        Controller
	updates     <-chan console.Snapshot
	unsubscribe func()
	projector   console.Projector

	view   console.ViewModel
	closed bool
	width  int
	height int
}

// NewAppModel subscribes to ctrl and builds the panels from its current state.
// The terminal renderer is shared by the output panel and the event log.
func NewAppModel(ctrl Controller, examples []string, renderer *render.TerminalRenderer) AppModel {
	if renderer == nil {
		renderer = render.NewTerminal(render.StyleASCII)
	}
	updates, unsubscribe := ctrl.Subscribe()
	m := AppModel{
		prompt:      NewPromptModel(examples),
		output:      NewOutputPanelModel(renderer),
		events:      NewEventLogModel(renderer),
		statusBar:   NewStatusBarModel(),
		ctrl:        ctrl,
		updates:     updates,
		unsubscribe: unsubscribe,
		// HTML is never shown in a terminal
		projector: console.Projector{Markdown: func(string) template.HTML { return "" }},
	}
	m.applySnapshot(ctrl.Snapshot())
	return m
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		WaitForSnapshotCmd(m.updates),
		TickCmd(time.Second),
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, WaitForSnapshotCmd(m.updates)

	case SessionClosedMsg:
		m.closed = true
		return m, tea.Quit

	case TickMsg:
		if m.closed {
			return m, nil
		}
		return m, TickCmd(time.Second)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Minimum terminal size guard to prevent layout overflow
	if m.width < 40 || m.height < 14 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x14.", m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("STREAM CONSOLE"))
	b.WriteString("\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	b.WriteString(m.output.View())
	b.WriteString("\n")
	b.WriteString(m.events.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())
	b.WriteString("\n")
	b.WriteString(HintStyle.Render(keyHints))
	return b.String()
}

// ViewModel returns the projection currently on screen.
func (m AppModel) ViewModel() console.ViewModel {
	return m.view
}

func (m *AppModel) applySnapshot(snap console.Snapshot) {
	m.view = m.projector.Project(snap)
	m.output.SetView(m.view)
	m.events.SetEvents(m.view.Events)
	m.statusBar.SetView(m.view)
}

// handleWindowSize splits the height between output and events.
func (m AppModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// title, prompt box (3), status bar, hints
	fixed := 1 + 3 + 1 + 1
	body := m.height - fixed
	if body < 6 {
		body = 6
	}
	outputHeight := body * 45 / 100
	if outputHeight < 3 {
		outputHeight = 3
	}
	eventsHeight := body - outputHeight
	if eventsHeight < 3 {
		eventsHeight = 3
	}

	m.prompt.SetWidth(m.width)
	m.output.SetSize(m.width, outputHeight)
	m.events.SetSize(m.width, eventsHeight)
	m.statusBar.SetWidth(m.width)
	return m, nil
}

// handleKeyMsg maps console key bindings onto the controller; other keys edit the prompt.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		m.closed = true
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit
	case "enter":
		m.ctrl.Start(m.prompt.Value())
		return m, nil
	case "esc":
		m.ctrl.Stop()
		return m, nil
	case "ctrl+l":
		m.ctrl.Clear()
		return m, nil
	case "tab":
		m.prompt.NextExample()
		return m, nil
	case "pgup", "pgdown":
		m.events = m.events.Scroll(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}
