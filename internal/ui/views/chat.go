package views

import (
	"strings"

	"github.com/Cyclone1070/lumen/internal/ui/services"
)

// RenderChat renders the message history
func RenderChat(s State) string {
	if len(s.Messages) == 0 {
		return "No messages yet. Type a message to start."
	}
	return s.Viewport.View()
}

// FormatChatContent formats the messages for the viewport
func FormatChatContent(messages []Message, width int, renderer services.MarkdownRenderer) string {
	var lines []string
	for _, msg := range messages {
		switch msg.Role {
		case "user":
			lines = append(lines, UserMessageStyle.Render("You: "+msg.Content))
		case "error":
			lines = append(lines, ErrorMessageStyle.Render(msg.Content))
		default:
			if msg.ToolSummary != "" {
				lines = append(lines, ToolSummaryStyle.Render(msg.ToolSummary))
			}
			lines = append(lines, AssistantMessageStyle.Render(services.RenderMarkdown(msg.Content, width, renderer)))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
