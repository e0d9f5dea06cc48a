// Package orchestrator ties the store, attachments and per-conversation agent
// loops into the operations the chat surfaces call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/store"
	"github.com/Cyclone1070/lumen/internal/workflow"
	"github.com/Cyclone1070/lumen/internal/workflow/loop"
	"github.com/Cyclone1070/lumen/internal/workflow/session"
)

// ErrCancelled is returned by Send when the run was cancelled. Nothing is
// persisted for the assistant in that case.
var ErrCancelled = loop.ErrCancelled

// Image is a pending attachment supplied with a user message.
type Image struct {
	Filename string
	Data     []byte
}

// Reply is the outcome of Send.
type Reply struct {
	ConversationID string
	Message        model.Message // the persisted assistant message
	Title          string        // conversation title after the turn, may be empty
	ToolCalls      []model.ToolCall
	CapReached     bool
	Failed         bool
}

// Service runs conversations: UI -> store -> agent loop -> store.
type Service struct {
	conversations conversationStore
	messages      messageStore
	attachments   attachmentStore
	sessions      *session.Registry
	staleAfter    time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// New creates a Service. attachments may be nil when images are not supported.
func New(conversations conversationStore, messages messageStore, attachments attachmentStore, sessions *session.Registry, staleAfter time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		conversations: conversations,
		messages:      messages,
		attachments:   attachments,
		sessions:      sessions,
		staleAfter:    staleAfter,
		logger:        logger.With("component", "orchestrator"),
		now:           time.Now,
	}
}

// Send appends a user turn to conversationID (creating the conversation when
// absent or when the id is empty), runs the agent and persists its reply.
func (s *Service) Send(ctx context.Context, conversationID, text string, images []Image) (*Reply, error) {
	if strings.TrimSpace(text) == "" && len(images) == 0 {
		return nil, errors.New("message is empty")
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	agent := s.sessions.GetOrCreate(conversationID)
	turn, err := agent.Reserve()
	if err != nil {
		return nil, err
	}
	defer turn.Release()

	if err := s.conversations.CreateConversation(ctx, &store.Conversation{ID: conversationID}); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	user := model.Message{
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        text,
	}
	for _, img := range images {
		if s.attachments == nil {
			return nil, errors.New("attachments are not supported")
		}
		att, err := s.attachments.Save(conversationID, img.Filename, img.Data)
		if err != nil {
			return nil, fmt.Errorf("save attachment %s: %w", img.Filename, err)
		}
		user.Attachments = append(user.Attachments, att)
	}
	if err := s.messages.CreateMessage(ctx, &user); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	stored, err := s.messages.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := BuildHistory(stored)

	completion, err := turn.Run(ctx, history)
	if err != nil {
		if errors.Is(err, loop.ErrCancelled) {
			s.logger.Info("turn cancelled", "conversation", conversationID)
			return nil, ErrCancelled
		}
		return nil, err
	}

	assistant := model.Message{
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        completion.Text,
		ToolSummary:    ToolSummary(completion.ToolCalls),
	}
	if err := s.messages.CreateMessage(ctx, &assistant); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	if conv.Title == "" && !completion.Failed {
		if title, ok := agent.GenerateTitle(ctx, append(history, assistant)); ok {
			conv.Title = title
		}
	}
	if err := s.conversations.UpdateConversation(ctx, conv); err != nil {
		s.logger.Warn("failed to touch conversation", "conversation", conversationID, "error", err)
	}

	return &Reply{
		ConversationID: conversationID,
		Message:        assistant,
		Title:          conv.Title,
		ToolCalls:      completion.ToolCalls,
		CapReached:     completion.CapReached,
		Failed:         completion.Failed,
	}, nil
}

// Cancel stops the in-flight turn of a conversation, if any.
func (s *Service) Cancel(conversationID string) {
	if agent, ok := s.sessions.Get(conversationID); ok {
		agent.Cancel()
	}
}

// State returns the agent state of a conversation.
func (s *Service) State(conversationID string) workflow.State {
	if agent, ok := s.sessions.Get(conversationID); ok {
		return agent.State()
	}
	return workflow.Idle()
}

// Delete cancels any running turn and removes the conversation, its
// messages and its attachments.
func (s *Service) Delete(ctx context.Context, conversationID string) error {
	s.sessions.Dispose(conversationID)
	if s.attachments != nil {
		if err := s.attachments.DeleteAll(conversationID); err != nil {
			s.logger.Warn("failed to delete attachments", "conversation", conversationID, "error", err)
		}
	}
	return s.conversations.DeleteConversation(ctx, conversationID)
}

// Resume returns the most recent conversation and its messages, or nil when
// there is none or it has gone stale.
func (s *Service) Resume(ctx context.Context) (*store.Conversation, []model.Message, error) {
	conv, err := s.conversations.MostRecentConversation(ctx)
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if conv.Stale(s.now(), s.staleAfter) {
		s.logger.Debug("most recent conversation is stale", "conversation", conv.ID, "updated_at", conv.UpdatedAt)
		return nil, nil, nil
	}
	msgs, err := s.messages.Messages(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

// Messages returns the persisted messages of a conversation.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	return s.messages.Messages(ctx, conversationID)
}

// List returns up to limit conversations, most recent first.
func (s *Service) List(ctx context.Context, limit int) ([]store.Conversation, error) {
	return s.conversations.ListConversations(ctx, limit)
}

// Search matches query against titles and message content.
func (s *Service) Search(ctx context.Context, query string) ([]store.Conversation, error) {
	return s.conversations.SearchConversations(ctx, query)
}

// Close disposes every session.
func (s *Service) Close() {
	s.sessions.DisposeAll()
}

// BuildHistory turns persisted messages into model input. Tool calls and
// reasoning are not replayed across turns, and messages left without text or
// attachments are dropped.
func BuildHistory(stored []model.Message) []model.Message {
	out := make([]model.Message, 0, len(stored))
	for _, m := range stored {
		m.ToolCalls = nil
		m.Reasoning = nil
		if strings.TrimSpace(m.Content) == "" && len(m.Attachments) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ToolSummary renders a display-only line naming the tools a turn used, in
// first-use order with repeat counts.
func ToolSummary(calls []model.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	var order []string
	counts := make(map[string]int)
	for _, c := range calls {
		if counts[c.Name] == 0 {
			order = append(order, c.Name)
		}
		counts[c.Name]++
	}
	parts := make([]string, len(order))
	for i, name := range order {
		if n := counts[name]; n > 1 {
			parts[i] = fmt.Sprintf("%s ×%d", name, n)
		} else {
			parts[i] = name
		}
	}
	return "Used " + strings.Join(parts, ", ")
}
