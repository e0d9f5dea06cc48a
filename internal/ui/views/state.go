// Package views renders the chat UI state.
package views

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/Cyclone1070/lumen/internal/workflow"
)

// Message is one rendered chat entry.
type Message struct {
	Role        string // "user", "assistant" or "error"
	Content     string
	ToolSummary string
}

// State is everything the views need to draw a frame.
type State struct {
	Messages []Message
	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model

	Agent          workflow.State
	CurrentTool    string
	Title          string
	ConversationID string
	Model          string

	Width  int
	Height int
}
