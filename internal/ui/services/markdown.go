// Package services holds rendering helpers for the terminal UI.
package services

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown for the terminal.
type MarkdownRenderer interface {
	Render(markdown string, width int) (string, error)
}

// GlamourRenderer renders with glamour, caching one renderer per wrap width.
type GlamourRenderer struct {
	style   string
	byWidth map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer. An empty style means automatic
// light/dark detection.
func NewGlamourRenderer(style string) *GlamourRenderer {
	return &GlamourRenderer{style: style, byWidth: make(map[int]*glamour.TermRenderer)}
}

func (g *GlamourRenderer) Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, ok := g.byWidth[width]
	if !ok {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if g.style == "" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(g.style))
		}
		var err error
		r, err = glamour.NewTermRenderer(opts...)
		if err != nil {
			return "", err
		}
		g.byWidth[width] = r
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// RenderMarkdown renders with renderer, falling back to the raw text.
func RenderMarkdown(markdown string, width int, renderer MarkdownRenderer) string {
	if renderer == nil {
		return markdown
	}
	out, err := renderer.Render(markdown, width)
	if err != nil {
		return markdown
	}
	return out
}
