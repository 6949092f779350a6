// ABOUTME: Bubble Tea sub-model for the latest agent output, rendered as terminal markdown.
// ABOUTME: Shows the error message in place of a placeholder when the stream failed.
package tui

import (
	"strings"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
)

// OutputPanelModel displays the most recent non-empty text of the stream.
type OutputPanelModel struct {
	renderer *render.TerminalRenderer
	text     string
	errMsg   string
	status   console.Status
	width    int
	height   int

	// last render, reused while text and width are unchanged
	renderedFor   string
	renderedWidth int
	rendered      string
}

// NewOutputPanelModel creates an empty output panel.
func NewOutputPanelModel(renderer *render.TerminalRenderer) OutputPanelModel {
	return OutputPanelModel{renderer: renderer}
}

// SetView copies the displayed fields from a view model.
func (m *OutputPanelModel) SetView(vm console.ViewModel) {
	m.text = vm.LatestText
	m.errMsg = vm.ErrorMessage
	m.status = vm.Status
	m.refresh()
}

// SetSize sets the available dimensions.
func (m *OutputPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.refresh()
}

func (m *OutputPanelModel) contentWidth() int {
	w := m.width - 4
	if w < 1 {
		w = 1
	}
	return w
}

func (m *OutputPanelModel) refresh() {
	if m.text == "" {
		m.rendered, m.renderedFor, m.renderedWidth = "", "", 0
		return
	}
	w := m.contentWidth()
	if m.text == m.renderedFor && w == m.renderedWidth {
		return
	}
	m.rendered = m.renderer.Render(w, m.text)
	m.renderedFor = m.text
	m.renderedWidth = w
}

// View renders the panel. Output taller than the panel keeps its last lines.
func (m OutputPanelModel) View() string {
	lines := []string{TitleStyle.Render("LATEST OUTPUT")}
	if m.errMsg != "" {
		lines = append(lines, ErrorStyle.Render(render.StripEscapes(m.errMsg)))
	}

	body := m.rendered
	if body == "" {
		switch m.status {
		case console.StatusConnecting, console.StatusStreaming, console.StatusSubmitted, console.StatusWorking:
			body = PlaceholderStyle.Render("Waiting for output...")
		default:
			body = PlaceholderStyle.Render("No output yet")
		}
	}
	lines = append(lines, strings.Split(body, "\n")...)

	if m.height > 2 {
		avail := m.height - 2
		if len(lines) > avail {
			lines = append(lines[:1], lines[len(lines)-avail+1:]...)
		}
	}

	style := BorderStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	if m.height > 2 {
		style = style.Height(m.height - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}
