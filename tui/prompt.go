// ABOUTME: PromptModel wraps a bubbles text input for the stream prompt.
// ABOUTME: Tab cycles canned example prompts into the input without starting a stream.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PromptModel holds the prompt input and the example prompts it can cycle through.
type PromptModel struct {
	textInput textinput.Model
	examples  []string
	next      int
	width     int
}

// NewPromptModel creates a focused prompt input.
func NewPromptModel(examples []string) PromptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the agent something..."
	ti.CharLimit = 2000
	ti.Focus()

	return PromptModel{
		textInput: ti,
		examples:  append([]string(nil), examples...),
	}
}

// Value returns the current prompt text.
func (m PromptModel) Value() string {
	return m.textInput.Value()
}

// SetValue replaces the prompt text.
func (m *PromptModel) SetValue(s string) {
	m.textInput.SetValue(s)
	m.textInput.CursorEnd()
}

// NextExample loads the next example prompt into the input. It reports false
// when there are no examples.
func (m *PromptModel) NextExample() bool {
	if len(m.examples) == 0 {
		return false
	}
	m.SetValue(m.examples[m.next])
	m.next = (m.next + 1) % len(m.examples)
	return true
}

// SetWidth sets the rendered width including the border.
func (m *PromptModel) SetWidth(w int) {
	m.width = w
	inner := w - 6 // border, padding, and "> "
	if inner < 1 {
		inner = 1
	}
	m.textInput.Width = inner
}

// Update forwards key events to the text input.
func (m PromptModel) Update(msg tea.Msg) (PromptModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the prompt box.
func (m PromptModel) View() string {
	style := PromptStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(m.textInput.View())
}
