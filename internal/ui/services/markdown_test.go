package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRenderer struct {
	renderFunc func(markdown string, width int) (string, error)
}

func (m *mockRenderer) Render(markdown string, width int) (string, error) {
	return m.renderFunc(markdown, width)
}

func TestGlamourRenderer(t *testing.T) {
	r := NewGlamourRenderer("notty")

	out, err := r.Render("# Title\n\nSome **bold** text.", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.Len(t, r.byWidth, 1)

	_, err = r.Render("again", 40)
	require.NoError(t, err)
	assert.Len(t, r.byWidth, 1, "renderer is cached per width")
}

func TestRenderMarkdown_Fallback(t *testing.T) {
	failing := &mockRenderer{renderFunc: func(string, int) (string, error) { return "", errors.New("boom") }}
	assert.Equal(t, "raw", RenderMarkdown("raw", 10, failing))
	assert.Equal(t, "raw", RenderMarkdown("raw", 10, nil))

	upper := &mockRenderer{renderFunc: func(md string, w int) (string, error) { return "<" + md + ">", nil }}
	assert.Equal(t, "<x>", RenderMarkdown("x", 10, upper))
}
