// ABOUTME: TemplateEngine loads embedded HTML templates and renders them with Go's html/template.
// ABOUTME: Pages are wrapped in the layout; fragments render a single named block for live swaps.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/2389-research/streamconsole/console"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string
	View      console.ViewModel
	Examples  []string
	StreamURL string
}

// TemplateEngine holds parsed page and fragment templates.
type TemplateEngine struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// NewTemplateEngine parses all embedded templates. Each page is parsed together
// with the layout and the shared fragments.
func NewTemplateEngine() (*TemplateEngine, error) {
	pages := []string{
		"console.html",
	}

	engine := &TemplateEngine{pages: make(map[string]*template.Template)}
	for _, page := range pages {
		t, err := template.New("layout.html").ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/output.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		engine.pages[page] = t
	}

	fragments, err := template.ParseFS(templateFS, "templates/output.html")
	if err != nil {
		return nil, fmt.Errorf("parsing fragments: %w", err)
	}
	engine.fragments = fragments
	return engine, nil
}

// Render executes the named page inside the layout and writes it to w.
func (e *TemplateEngine) Render(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := e.RenderTo(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// RenderTo executes the named page inside the layout and writes it to w.
func (e *TemplateEngine) RenderTo(w io.Writer, name string, data any) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

// Fragment renders one named block, such as "output", to a string.
func (e *TemplateEngine) Fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering fragment %s: %w", name, err)
	}
	return buf.String(), nil
}
