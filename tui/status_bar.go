// ABOUTME: Implements a single-line status bar for the bottom of the console.
// ABOUTME: Displays the status label, event count, elapsed stream time, and stream ID.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
)

// StatusBarModel displays session status in a single line.
type StatusBarModel struct {
	label      string
	category   console.Category
	streamID   string
	eventCount int
	live       bool
	startTime  time.Time
	endTime    time.Time
	width      int
	now        func() time.Time
}

// NewStatusBarModel creates an idle status bar.
func NewStatusBarModel() StatusBarModel {
	return StatusBarModel{
		label:    console.StatusIdle.Label(),
		category: console.CategoryIdle,
		now:      time.Now,
	}
}

// SetView copies the displayed fields from a view model. The elapsed timer
// restarts when the stream ID changes and freezes when the stream ends.
func (m *StatusBarModel) SetView(vm console.ViewModel) {
	now := m.now()
	if vm.StreamID != m.streamID {
		m.startTime, m.endTime = time.Time{}, time.Time{}
		if vm.StreamID != "" {
			m.startTime = now
		}
	}
	if m.live && !vm.Live && m.endTime.IsZero() {
		m.endTime = now
	}
	m.label = vm.StatusLabel
	m.category = vm.StatusClass
	m.streamID = vm.StreamID
	m.eventCount = vm.EventCount
	m.live = vm.Live
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// Elapsed returns the running or final stream duration, or zero when idle.
func (m StatusBarModel) Elapsed() time.Duration {
	if m.startTime.IsZero() {
		return 0
	}
	if !m.endTime.IsZero() {
		return m.endTime.Sub(m.startTime)
	}
	return m.now().Sub(m.startTime)
}

// formatElapsed formats a duration as a human-readable string.
// Durations under a minute show as seconds (e.g. "12s").
// Durations of a minute or more show as minutes and seconds (e.g. "2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	stream := m.streamID
	if stream == "" {
		stream = "none"
	}

	content := fmt.Sprintf("%s | Events: %d | Elapsed: %s | Stream: %s",
		StyleForCategory(m.category).Render(render.StripEscapes(m.label)), m.eventCount, formatElapsed(m.Elapsed()), stream)

	style := StatusBarStyle.Width(m.width)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
