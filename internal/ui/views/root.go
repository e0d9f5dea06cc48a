package views

import "github.com/charmbracelet/lipgloss"

// RenderRoot renders the complete UI layout
func RenderRoot(s State) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		RenderHeader(s),
		RenderChat(s),
		RenderInput(s),
		RenderStatus(s),
	)
}
