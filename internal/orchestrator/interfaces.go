package orchestrator

import (
	"context"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/store"
)

// conversationStore is the subset of store.ConversationStore the service uses.
type conversationStore interface {
	CreateConversation(ctx context.Context, c *store.Conversation) error
	UpdateConversation(ctx context.Context, c *store.Conversation) error
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	MostRecentConversation(ctx context.Context) (*store.Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]store.Conversation, error)
	SearchConversations(ctx context.Context, query string) ([]store.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

type messageStore interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	Messages(ctx context.Context, conversationID string) ([]model.Message, error)
}

type attachmentStore interface {
	Save(conversationID, filename string, data []byte) (model.Attachment, error)
	DeleteAll(conversationID string) error
}
