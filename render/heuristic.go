// ABOUTME: Cheap line-anchored check for whether a line of stream text looks like markdown.
// ABOUTME: Drives the per-event choice between rendered markup and literal text.
package render

import "regexp"

var markdownHint = regexp.MustCompile("(?m)(^#{1,6}\\s)|(\\*\\*.+\\*\\*)|(```)|(^\\s*[-*+]\\s)|(^\\s*\\d+\\.\\s)")

// LooksLikeMarkdown reports whether text contains a heading, a bold span, a
// code fence, or a bullet or numbered list item. It is a heuristic, not a parser.
func LooksLikeMarkdown(text string) bool {
	if text == "" {
		return false
	}
	return markdownHint.MatchString(text)
}
