package views

import (
	"fmt"

	"github.com/Cyclone1070/lumen/internal/workflow"
)

// RenderStatus renders the status bar for the current agent state.
func RenderStatus(s State) string {
	var status string
	switch s.Agent.Kind {
	case workflow.StateThinking:
		status = StatusThinkingStyle.Render(s.Spinner.View() + " Thinking... (esc to cancel)")
	case workflow.StateExecutingTool:
		status = StatusExecutingStyle.Render(fmt.Sprintf("%s Running %s... (esc to cancel)", s.Spinner.View(), s.Agent.Tool))
	case workflow.StateResponding:
		status = StatusThinkingStyle.Render(s.Spinner.View() + " Writing answer...")
	case workflow.StateError:
		status = StatusErrorStyle.Render("✘ Last request failed")
	case workflow.StateCancelled:
		status = StatusDefaultStyle.Render("Cancelled")
	default:
		status = StatusDefaultStyle.Render("Ready")
	}

	if s.Model != "" {
		status = fmt.Sprintf("%s  %s", status, StatusDefaultStyle.Render(s.Model))
	}
	return status
}

// RenderInput renders the input bar
func RenderInput(s State) string {
	return InputStyle.Render(s.Input.View())
}

// RenderHeader renders the conversation title.
func RenderHeader(s State) string {
	title := s.Title
	if title == "" {
		title = "New conversation"
	}
	return TitleStyle.Render(title)
}
