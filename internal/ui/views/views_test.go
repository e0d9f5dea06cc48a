package views

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"

	"github.com/Cyclone1070/lumen/internal/workflow"
)

type upperRenderer struct{}

func (upperRenderer) Render(markdown string, width int) (string, error) {
	return strings.ToUpper(markdown), nil
}

func TestRenderStatus(t *testing.T) {
	tests := []struct {
		name  string
		state workflow.State
		want  string
	}{
		{name: "idle", state: workflow.Idle(), want: "Ready"},
		{name: "thinking", state: workflow.Thinking(), want: "Thinking"},
		{name: "tool", state: workflow.ExecutingTool("web_search"), want: "Running web_search"},
		{name: "responding", state: workflow.Responding(), want: "Writing answer"},
		{name: "error", state: workflow.Failed(errors.New("x")), want: "failed"},
		{name: "cancelled", state: workflow.Cancelled(), want: "Cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderStatus(State{Agent: tt.state, Spinner: spinner.New(), Model: "sonnet"})
			assert.Contains(t, got, tt.want)
			assert.Contains(t, got, "sonnet")
		})
	}
}

func TestFormatChatContent(t *testing.T) {
	out := FormatChatContent([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello", ToolSummary: "Used web_search"},
		{Role: "error", Content: "Error: boom"},
	}, 40, upperRenderer{})

	assert.Contains(t, out, "You: hi")
	assert.Contains(t, out, "HELLO")
	assert.Contains(t, out, "Used web_search")
	assert.Contains(t, out, "Error: boom")
	assert.Less(t, strings.Index(out, "Used web_search"), strings.Index(out, "HELLO"))
}

func TestRenderChat_Empty(t *testing.T) {
	assert.Contains(t, RenderChat(State{}), "No messages yet")
}

func TestRenderHeader(t *testing.T) {
	assert.Contains(t, RenderHeader(State{}), "New conversation")
	assert.Contains(t, RenderHeader(State{Title: "Paris Weather"}), "Paris Weather")
}
