package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Cyclone1070/lumen/internal/orchestrator"
	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/ui/services"
	"github.com/Cyclone1070/lumen/internal/ui/views"
	"github.com/Cyclone1070/lumen/internal/workflow"
)

const helpText = "Available commands:\n- /new - Start a new conversation\n- /help - Show this help\n\nPress esc to cancel a running request, ctrl+c to quit."

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state   views.State
	sending bool

	service  chatService
	events   <-chan workflow.Event
	renderer services.MarkdownRenderer
}

// Internal messages
type replyMsg struct{ reply *orchestrator.Reply }
type sendErrMsg struct{ err error }
type agentEventMsg struct{ event workflow.Event }

func newBubbleTeaModel(service chatService, events <-chan workflow.Event, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory, opts Options) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.Focus()

	convID := opts.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	m := BubbleTeaModel{
		state: views.State{
			Input:          ti,
			Viewport:       viewport.New(80, 20),
			Spinner:        spinnerFactory(),
			Agent:          workflow.Idle(),
			Title:          opts.Title,
			ConversationID: convID,
			Model:          opts.Model,
		},
		service:  service,
		events:   events,
		renderer: renderer,
	}
	for _, msg := range opts.History {
		if v, ok := toView(msg); ok {
			m.state.Messages = append(m.state.Messages, v)
		}
	}
	m.updateViewport()
	return m
}

func toView(msg model.Message) (views.Message, bool) {
	switch msg.Role {
	case model.RoleUser:
		return views.Message{Role: "user", Content: msg.Content}, msg.Content != ""
	case model.RoleAssistant:
		role := "assistant"
		if model.IsErrorText(msg.Content) {
			role = "error"
		}
		return views.Message{Role: role, Content: msg.Content, ToolSummary: msg.ToolSummary}, true
	}
	return views.Message{}, false
}

// Init initializes the model
func (m BubbleTeaModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.state.Spinner.Tick, listenForEvents(m.events))
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = max(1, msg.Height-6) // header, input and status
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case agentEventMsg:
		if ev, ok := msg.event.(workflow.StateEvent); ok && ev.ConversationID == m.state.ConversationID && m.sending {
			m.state.Agent = ev.State
		}
		return m, listenForEvents(m.events)

	case replyMsg:
		m.sending = false
		m.state.Agent = workflow.Idle()
		if msg.reply.Title != "" {
			m.state.Title = msg.reply.Title
		}
		role := "assistant"
		if msg.reply.Failed {
			role = "error"
			m.state.Agent = workflow.Failed(errors.New(msg.reply.Message.Content))
		}
		m.appendMessage(views.Message{Role: role, Content: msg.reply.Message.Content, ToolSummary: msg.reply.Message.ToolSummary})
		return m, nil

	case sendErrMsg:
		m.sending = false
		if errors.Is(msg.err, orchestrator.ErrCancelled) {
			m.state.Agent = workflow.Cancelled()
			return m, nil
		}
		m.state.Agent = workflow.Failed(msg.err)
		m.appendMessage(views.Message{Role: "error", Content: model.ErrorPrefix + " " + msg.err.Error()})
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.sending {
			m.service.Cancel(m.state.ConversationID)
		}
		return m, tea.Quit

	case "esc":
		if m.sending {
			m.service.Cancel(m.state.ConversationID)
		}
		return m, nil

	case "enter":
		input := strings.TrimSpace(m.state.Input.Value())
		if m.sending || input == "" {
			return m, nil
		}
		m.state.Input.SetValue("")
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}

		m.appendMessage(views.Message{Role: "user", Content: input})
		m.sending = true
		m.state.Agent = workflow.Thinking()
		return m, sendCmd(m.service, m.state.ConversationID, input)
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleCommand handles slash commands
func (m BubbleTeaModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.Fields(input)[0] {
	case "/new":
		m.state.ConversationID = uuid.NewString()
		m.state.Title = ""
		m.state.Messages = nil
		m.state.Agent = workflow.Idle()
		m.updateViewport()
	case "/help":
		m.appendMessage(views.Message{Role: "assistant", Content: helpText})
	default:
		m.appendMessage(views.Message{Role: "error", Content: "Unknown command " + input + ". Type /help for commands."})
	}
	return m, nil
}

func (m *BubbleTeaModel) appendMessage(msg views.Message) {
	m.state.Messages = append(m.state.Messages, msg)
	m.updateViewport()
}

// updateViewport updates the viewport content
func (m *BubbleTeaModel) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Width-4, m.renderer)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

func sendCmd(service chatService, conversationID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := service.Send(context.Background(), conversationID, text, nil)
		if err != nil {
			return sendErrMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}

func listenForEvents(ch <-chan workflow.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return agentEventMsg{event: ev}
	}
}
