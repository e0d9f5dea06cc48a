package web

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/lumen/internal/provider/exa"
)

const separator = "\n---\n\n"

// FormatResults renders search hits as a numbered list the model can cite.
func FormatResults(header string, results []exa.Result) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString(separator)
		}
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n", i+1, title, r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", r.PublishedDate)
		}
		if r.Author != "" {
			fmt.Fprintf(&b, "Author: %s\n", r.Author)
		}
		if text := strings.TrimSpace(r.Text); text != "" {
			b.WriteString("\n")
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
