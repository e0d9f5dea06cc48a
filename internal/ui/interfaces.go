package ui

import (
	"context"

	"github.com/Cyclone1070/lumen/internal/orchestrator"
)

// chatService is implemented by *orchestrator.Service.
type chatService interface {
	Send(ctx context.Context, conversationID, text string, images []orchestrator.Image) (*orchestrator.Reply, error)
	Cancel(conversationID string)
}
