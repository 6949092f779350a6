// ABOUTME: Terminal markdown rendering with glamour for the TUI and the run command.
// ABOUTME: Escape sequences in stream text are stripped before rendering so upstream text cannot drive the terminal.
package render

import (
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/x/ansi"
)

// Terminal style names accepted by NewTerminal.
const (
	StyleASCII = "ascii"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// TerminalRenderer renders markdown to styled terminal text. Glamour renderers
// are built lazily per wrap width and reused.
type TerminalRenderer struct {
	style glamouransi.StyleConfig

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewTerminal returns a renderer for the named style; unknown names fall back to ASCII.
func NewTerminal(style string) *TerminalRenderer {
	var cfg glamouransi.StyleConfig
	switch style {
	case StyleDark:
		cfg = styles.DarkStyleConfig
	case StyleLight:
		cfg = styles.LightStyleConfig
	case StyleNoTTY:
		cfg = styles.NoTTYStyleConfig
	default:
		cfg = styles.ASCIIStyleConfig
		cfg.Item.BlockPrefix = "- "
	}
	return &TerminalRenderer{style: cfg, renderers: map[int]*glamour.TermRenderer{}}
}

// Render formats text for a terminal of the given width. Rendering failures
// fall back to the stripped plain text.
func (t *TerminalRenderer) Render(width int, text string) string {
	clean := StripEscapes(text)
	if strings.TrimSpace(clean) == "" {
		return ""
	}
	if width < 1 {
		width = 1
	}
	r := t.renderer(width)
	if r == nil {
		return clean
	}
	out, err := r.Render(clean)
	if err != nil {
		return clean
	}
	return strings.Trim(out, "\n")
}

func (t *TerminalRenderer) renderer(width int) *glamour.TermRenderer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(t.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	t.renderers[width] = r
	return r
}

// StripEscapes removes ANSI escape sequences and other control characters,
// keeping newlines and tabs.
func StripEscapes(text string) string {
	stripped := ansi.Strip(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, stripped)
}
