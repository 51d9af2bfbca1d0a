package models

import "strings"

// snippetPreviewLength is the number of characters shown under each headline
const snippetPreviewLength = 150

// NewsResult is a single search hit, ordered by provider relevance
type NewsResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Preview returns the first 150 characters of the snippet followed by an ellipsis
func (n NewsResult) Preview() string {
	return TruncateRunes(n.Snippet, snippetPreviewLength) + "..."
}

// NewsBlob joins every title and full snippet into the text handed to the analysis step
func NewsBlob(results []NewsResult) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.Title)
		b.WriteString(": ")
		b.WriteString(r.Snippet)
		b.WriteString("\n\n")
	}
	return b.String()
}

// TruncateRunes returns at most n characters of s
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
