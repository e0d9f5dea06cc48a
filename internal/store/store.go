// Package store defines persistence for conversations, messages and usage.
package store

import (
	"context"
	"time"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// Conversation is a persisted chat thread.
type Conversation struct {
	ID        string
	Title     string // empty until a title has been generated
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stale reports whether the conversation was last updated more than maxAge ago.
func (c *Conversation) Stale(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(c.UpdatedAt) > maxAge
}

// UsageTotal is the persisted token count for one model.
type UsageTotal struct {
	ModelID      string
	InputTokens  int
	OutputTokens int
	Calls        int
}

// ConversationStore manages conversation records.
type ConversationStore interface {
	// CreateConversation inserts c unless a conversation with the same ID
	// already exists, in which case it does nothing.
	CreateConversation(ctx context.Context, c *Conversation) error

	// UpdateConversation persists the title and bumps UpdatedAt.
	UpdateConversation(ctx context.Context, c *Conversation) error

	// GetConversation returns a *NotFoundError when id does not exist.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// MostRecentConversation returns the last updated conversation, or a
	// *NotFoundError when there are none.
	MostRecentConversation(ctx context.Context) (*Conversation, error)

	// ListConversations returns up to limit conversations, most recently
	// updated first. limit <= 0 means no limit.
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)

	// SearchConversations matches query as a case-insensitive substring of
	// the title or of any user or assistant message content.
	SearchConversations(ctx context.Context, query string) ([]Conversation, error)

	// DeleteConversation removes the conversation and all of its messages.
	DeleteConversation(ctx context.Context, id string) error
}

// MessageStore manages message records. Reasoning blocks are not persisted.
type MessageStore interface {
	// CreateMessage appends msg. ID and CreatedAt are assigned when empty.
	CreateMessage(ctx context.Context, msg *model.Message) error

	// Messages returns the conversation's messages in creation order.
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)

	DeleteMessage(ctx context.Context, id string) error
}

// UsageStore accumulates token usage per model.
type UsageStore interface {
	AddUsage(modelID string, inputTokens, outputTokens int) error
	UsageTotals(ctx context.Context) ([]UsageTotal, error)
}
