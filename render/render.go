// ABOUTME: Safe markdown rendering: goldmark (GFM, hard wraps) output passed through a bluemonday UGC policy.
// ABOUTME: Markdown is the only path from untrusted stream text to HTML; Sanitize exposes the policy alone.
package render

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// converter emits raw HTML from the source untouched; policy removes anything
// active before the markup is returned.
var (
	converter = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

// Markdown converts text to sanitized HTML. Empty input yields empty markup.
// If conversion fails the text is returned HTML-escaped.
func Markdown(text string) template.HTML {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := converter.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Sanitize runs markup through the sanitizer without markdown conversion.
func Sanitize(markup string) template.HTML {
	if markup == "" {
		return ""
	}
	return template.HTML(policy.Sanitize(markup))
}
