package storage

import (
	"context"
)

// Store bundles the free query functions behind the interface the agent
// consumes. It is safe for concurrent use; sqlite serializes writes.
type Store struct {
	db *DB
}

// NewStore wraps an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) OwnedConversation(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	return GetOwnedConversation(ctx, s.db.DB(), conversationID, userID)
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	return ListConversationsByUser(ctx, s.db.DB(), userID)
}

func (s *Store) CreateConversation(ctx context.Context, conversation *Conversation) error {
	return CreateConversation(ctx, s.db.DB(), conversation)
}

func (s *Store) Touch(ctx context.Context, conversationID string) error {
	return TouchConversation(ctx, s.db.DB(), conversationID)
}

func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return GetMessagesByConversationID(ctx, s.db.DB(), conversationID)
}

func (s *Store) Append(ctx context.Context, message *Message) error {
	return AppendMessage(ctx, s.db.DB(), message)
}

func (s *Store) TurnCount(ctx context.Context, conversationID string) (int, error) {
	return CountUserMessages(ctx, s.db.DB(), conversationID)
}

func (s *Store) DisplayedContext(ctx context.Context, conversationID string) (*DisplayedContext, error) {
	return GetDisplayedContext(ctx, s.db.DB(), conversationID)
}

func (s *Store) SaveDisplayedContext(ctx context.Context, dc *DisplayedContext) error {
	return UpsertDisplayedContext(ctx, s.db.DB(), dc)
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.DB().PingContext(ctx)
}
