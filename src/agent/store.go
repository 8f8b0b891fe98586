package agent

import (
	"context"

	"github.com/taskchat/taskchat/src/storage"
)

// ConversationStore is the slice of the external conversation store the
// agent depends on: ownership-checked reads and appends. storage.Store
// implements it; tests substitute fakes.
type ConversationStore interface {
	OwnedConversation(ctx context.Context, conversationID, userID string) (*storage.Conversation, error)
	CreateConversation(ctx context.Context, conversation *storage.Conversation) error
	Touch(ctx context.Context, conversationID string) error
	Messages(ctx context.Context, conversationID string) ([]storage.Message, error)
	Append(ctx context.Context, message *storage.Message) error
	TurnCount(ctx context.Context, conversationID string) (int, error)
	DisplayedContext(ctx context.Context, conversationID string) (*storage.DisplayedContext, error)
	SaveDisplayedContext(ctx context.Context, dc *storage.DisplayedContext) error
}
