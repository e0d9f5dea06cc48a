package views

import "github.com/charmbracelet/lipgloss"

var (
	UserMessageStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	AssistantMessageStyle = lipgloss.NewStyle()
	ErrorMessageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	ToolSummaryStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	TitleStyle            = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	InputStyle            = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)

	StatusDefaultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	StatusThinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	StatusExecutingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	StatusErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
