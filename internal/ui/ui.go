// Package ui is the interactive terminal chat.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/ui/services"
	"github.com/Cyclone1070/lumen/internal/workflow"
)

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// Options seeds the UI with an existing conversation.
type Options struct {
	ConversationID string // empty starts a new conversation
	Title          string
	Model          string
	History        []model.Message
}

// UI implements the chat window using Bubble Tea
type UI struct {
	program *tea.Program
}

// NewUI creates a new Bubble Tea UI. events carries agent state changes for
// the status bar and may be nil.
func NewUI(service chatService, events <-chan workflow.Event, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory, opts Options) *UI {
	m := newBubbleTeaModel(service, events, renderer, spinnerFactory, opts)
	return &UI{program: tea.NewProgram(m, tea.WithAltScreen())}
}

// Start runs the UI until the user quits.
func (u *UI) Start() error {
	_, err := u.program.Run()
	return err
}
