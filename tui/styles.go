// ABOUTME: Defines lipgloss styles for the console layout panels, status categories, and event lines.
// ABOUTME: Provides StyleForCategory to map a status category to its display style.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/streamconsole/console"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status category colors
	IdleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	LiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	DoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Event log
	LogTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogTypeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogStateStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Prompt and key hints
	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(0, 1)
	HintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// StyleForCategory returns the style used for a status category.
func StyleForCategory(c console.Category) lipgloss.Style {
	switch c {
	case console.CategoryLive:
		return LiveStyle
	case console.CategoryDone:
		return DoneStyle
	case console.CategoryError:
		return ErrorStyle
	default:
		return IdleStyle
	}
}
