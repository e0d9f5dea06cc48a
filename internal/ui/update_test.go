package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/lumen/internal/orchestrator"
	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/workflow"
)

type mockService struct {
	sendFunc  func(ctx context.Context, conversationID, text string, images []orchestrator.Image) (*orchestrator.Reply, error)
	cancelled []string
}

func (m *mockService) Send(ctx context.Context, conversationID, text string, images []orchestrator.Image) (*orchestrator.Reply, error) {
	return m.sendFunc(ctx, conversationID, text, images)
}

func (m *mockService) Cancel(conversationID string) {
	m.cancelled = append(m.cancelled, conversationID)
}

type plainRenderer struct{}

func (plainRenderer) Render(markdown string, width int) (string, error) { return markdown, nil }

func newTestModel(svc *mockService, opts Options) BubbleTeaModel {
	return newBubbleTeaModel(svc, nil, plainRenderer{}, func() spinner.Model { return spinner.New() }, opts)
}

func typeText(m BubbleTeaModel, text string) BubbleTeaModel {
	m.state.Input.SetValue(text)
	return m
}

func press(t *testing.T, m BubbleTeaModel, key tea.KeyType) (BubbleTeaModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(BubbleTeaModel), cmd
}

func TestEnter_SendsMessage(t *testing.T) {
	svc := &mockService{sendFunc: func(ctx context.Context, id, text string, images []orchestrator.Image) (*orchestrator.Reply, error) {
		return &orchestrator.Reply{
			ConversationID: id,
			Title:          "Multiplication",
			Message:        model.Message{Role: model.RoleAssistant, Content: "120", ToolSummary: "Used calculator"},
		}, nil
	}}
	m := newTestModel(svc, Options{ConversationID: "conv"})

	m, cmd := press(t, typeText(m, "What is 15 * 8?"), tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.sending)
	assert.Equal(t, workflow.StateThinking, m.state.Agent.Kind)
	assert.Empty(t, m.state.Input.Value())
	require.Len(t, m.state.Messages, 1)
	assert.Equal(t, "user", m.state.Messages[0].Role)

	next, _ := m.Update(cmd())
	m = next.(BubbleTeaModel)

	assert.False(t, m.sending)
	assert.Equal(t, workflow.Idle(), m.state.Agent)
	assert.Equal(t, "Multiplication", m.state.Title)
	require.Len(t, m.state.Messages, 2)
	assert.Equal(t, "120", m.state.Messages[1].Content)
	assert.Equal(t, "Used calculator", m.state.Messages[1].ToolSummary)
}

func TestEnter_IgnoredWhileSending(t *testing.T) {
	m := newTestModel(&mockService{}, Options{})
	m.sending = true

	m, cmd := press(t, typeText(m, "again"), tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Empty(t, m.state.Messages)
}

func TestEsc_CancelsRunningRequest(t *testing.T) {
	svc := &mockService{}
	m := newTestModel(svc, Options{ConversationID: "conv"})

	m, _ = press(t, m, tea.KeyEsc)
	assert.Empty(t, svc.cancelled, "nothing to cancel while idle")

	m.sending = true
	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, []string{"conv"}, svc.cancelled)

	next, _ := m.Update(sendErrMsg{err: orchestrator.ErrCancelled})
	m = next.(BubbleTeaModel)
	assert.Equal(t, workflow.StateCancelled, m.state.Agent.Kind)
	assert.Empty(t, m.state.Messages, "cancelled turns show nothing")
}

func TestSendError_ShowsError(t *testing.T) {
	m := newTestModel(&mockService{}, Options{})
	m.sending = true

	next, _ := m.Update(sendErrMsg{err: errors.New("database is locked")})
	m = next.(BubbleTeaModel)

	require.Len(t, m.state.Messages, 1)
	assert.Equal(t, "error", m.state.Messages[0].Role)
	assert.Equal(t, "Error: database is locked", m.state.Messages[0].Content)
	assert.Equal(t, workflow.StateError, m.state.Agent.Kind)
}

func TestFailedReply_ShownAsError(t *testing.T) {
	m := newTestModel(&mockService{}, Options{})
	m.sending = true

	next, _ := m.Update(replyMsg{reply: &orchestrator.Reply{Failed: true, Message: model.Message{Content: model.TimeoutMessage}}})
	m = next.(BubbleTeaModel)

	require.Len(t, m.state.Messages, 1)
	assert.Equal(t, "error", m.state.Messages[0].Role)
}

func TestAgentEvents_UpdateStatus(t *testing.T) {
	m := newTestModel(&mockService{}, Options{ConversationID: "conv"})
	m.sending = true

	next, _ := m.Update(agentEventMsg{event: workflow.StateEvent{ConversationID: "conv", State: workflow.ExecutingTool("reddit_read")}})
	m = next.(BubbleTeaModel)
	assert.Equal(t, workflow.ExecutingTool("reddit_read"), m.state.Agent)

	next, _ = m.Update(agentEventMsg{event: workflow.StateEvent{ConversationID: "other", State: workflow.Thinking()}})
	m = next.(BubbleTeaModel)
	assert.Equal(t, workflow.ExecutingTool("reddit_read"), m.state.Agent, "other conversations are ignored")
}

func TestCommands(t *testing.T) {
	m := newTestModel(&mockService{}, Options{ConversationID: "conv", Title: "Old"})
	m.state.Messages = nil

	m, _ = press(t, typeText(m, "/help"), tea.KeyEnter)
	require.Len(t, m.state.Messages, 1)
	assert.Contains(t, m.state.Messages[0].Content, "/new")

	m, _ = press(t, typeText(m, "/new"), tea.KeyEnter)
	assert.Empty(t, m.state.Messages)
	assert.Empty(t, m.state.Title)
	assert.NotEqual(t, "conv", m.state.ConversationID)

	m, _ = press(t, typeText(m, "/bogus"), tea.KeyEnter)
	require.Len(t, m.state.Messages, 1)
	assert.Equal(t, "error", m.state.Messages[0].Role)
}

func TestHistorySeeded(t *testing.T) {
	m := newTestModel(&mockService{}, Options{History: []model.Message{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a", ToolSummary: "Used web_search"},
		{Role: model.RoleAssistant, Content: "Error: boom"},
		{Role: model.RoleSystem, Content: "hidden"},
	}})

	require.Len(t, m.state.Messages, 3)
	assert.Equal(t, "user", m.state.Messages[0].Role)
	assert.Equal(t, "assistant", m.state.Messages[1].Role)
	assert.Equal(t, "error", m.state.Messages[2].Role)
	assert.NotEmpty(t, m.state.ConversationID)
}
