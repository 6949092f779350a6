// ABOUTME: Implements the scrollable stream event log using the bubbles viewport component.
// ABOUTME: Markdown-looking message events are rendered with glamour; everything else is literal text.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
)

// EventLogModel is a scrollable list of projected stream events.
type EventLogModel struct {
	renderer *render.TerminalRenderer
	events   []console.EventView
	viewport viewport.Model
	width    int
	height   int

	// rendered markdown blocks by event ID at cacheWidth
	cache      map[string]string
	cacheWidth int
}

// NewEventLogModel creates an empty event log.
func NewEventLogModel(renderer *render.TerminalRenderer) EventLogModel {
	return EventLogModel{
		renderer: renderer,
		viewport: viewport.New(80, 10),
		cache:    map[string]string{},
	}
}

// SetEvents replaces the displayed events. The view follows new events only
// while it is scrolled to the bottom.
func (m *EventLogModel) SetEvents(events []console.EventView) {
	if len(events) == 0 {
		clear(m.cache)
	}
	m.events = events
	m.syncViewport()
}

// Len returns the number of displayed events.
func (m EventLogModel) Len() int {
	return len(m.events)
}

// SetSize sets the available dimensions and updates the viewport.
func (m *EventLogModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Reserve space for the border (2 lines top/bottom) and title (1 line)
	vpWidth := w - 2
	vpHeight := h - 3
	if vpWidth < 1 {
		vpWidth = 1
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.syncViewport()
}

// Scroll forwards paging keys to the viewport.
func (m EventLogModel) Scroll(msg tea.KeyMsg) EventLogModel {
	m.viewport, _ = m.viewport.Update(msg)
	return m
}

// AtBottom reports whether the newest event is in view.
func (m EventLogModel) AtBottom() bool {
	return m.viewport.AtBottom()
}

// View renders the event log panel.
func (m EventLogModel) View() string {
	var content string
	if len(m.events) == 0 {
		content = PlaceholderStyle.Render("No events yet")
	} else {
		content = m.viewport.View()
	}

	rendered := TitleStyle.Render("EVENTS") + "\n" + content

	style := BorderStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(rendered)
}

// syncViewport rebuilds the viewport content from events.
func (m *EventLogModel) syncViewport() {
	if len(m.events) == 0 {
		m.viewport.SetContent("")
		m.viewport.GotoTop()
		return
	}
	if m.cacheWidth != m.viewport.Width {
		clear(m.cache)
		m.cacheWidth = m.viewport.Width
	}

	follow := m.viewport.AtBottom()
	lines := make([]string, 0, len(m.events))
	for _, evt := range m.events {
		lines = append(lines, m.formatEntry(evt))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

// formatEntry formats one event: a clock and type header, then the line.
func (m *EventLogModel) formatEntry(evt console.EventView) string {
	header := LogTimestampStyle.Render(render.StripEscapes(evt.Clock)) + " " +
		LogTypeStyle.Render(render.StripEscapes(evt.Type))
	if evt.State != "" {
		header += " " + LogStateStyle.Render("["+render.StripEscapes(evt.State)+"]")
	}

	if evt.Mode == console.ModeMarkdown {
		block, ok := m.cache[evt.ID]
		if !ok {
			block = m.renderer.Render(m.viewport.Width, evt.Line)
			m.cache[evt.ID] = block
		}
		return header + "\n" + block
	}
	return header + " " + render.StripEscapes(evt.Line)
}
