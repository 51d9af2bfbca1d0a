package partials

import (
	"bytes"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
)

// markdown renders generated analysis. Raw HTML in the source is dropped.
var markdown = goldmark.New()

func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "<p>" + templ.EscapeString(text) + "</p>"
	}
	return buf.String()
}
