// ABOUTME: Tests for TemplateEngine page and fragment rendering.
// ABOUTME: Verifies layout wrapping, escaping of literal event text, and unknown template errors.
package web

import (
	"bytes"
	"html/template"
	"strings"
	"testing"

	"github.com/2389-research/streamconsole/console"
)

func TestTemplateEngineRendersPage(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatalf("NewTemplateEngine: %v", err)
	}
	var buf bytes.Buffer
	data := PageData{
		Title:    "Console",
		View:     console.Project(console.Snapshot{Status: console.StatusIdle}),
		Examples: []string{`a "quoted" example`},
	}
	if err := engine.RenderTo(&buf, "console.html", data); err != nil {
		t.Fatalf("RenderTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "<title>Console · Stream Console</title>", `data-example="a &#34;quoted&#34; example"`, "Waiting for updates."} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestTemplateEngineUnknownPage(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.RenderTo(&bytes.Buffer{}, "missing.html", nil); err == nil {
		t.Error("expected error for unknown page")
	}
	if _, err := engine.Fragment("missing", nil); err == nil {
		t.Error("expected error for unknown fragment")
	}
}

func TestFragmentEventModes(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatal(err)
	}
	vm := console.ViewModel{
		Status:     console.StatusStreaming,
		EventCount: 2,
		Events: []console.EventView{
			{ID: "a", Type: "message", Line: "<img src=x>", Clock: "10:00:00", Mode: console.ModeText},
			{ID: "b", Type: "message", Line: "## Heading", Clock: "10:00:01", Mode: console.ModeMarkdown, HTML: template.HTML("<h2>Heading</h2>")},
		},
	}
	html, err := engine.Fragment("output", vm)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	if !strings.Contains(html, `<p class="event-text">&lt;img src=x&gt;</p>`) {
		t.Errorf("text event not escaped:\n%s", html)
	}
	if !strings.Contains(html, `<div class="event-markdown"><h2>Heading</h2></div>`) {
		t.Errorf("markdown event not inserted:\n%s", html)
	}
	if !strings.Contains(html, `<span class="events-count">2</span>`) {
		t.Errorf("event count missing:\n%s", html)
	}
}
