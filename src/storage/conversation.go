package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the conversation does not exist.
	ErrNotFound = errors.New("conversation not found")

	// ErrForbidden indicates the conversation belongs to a different user.
	ErrForbidden = errors.New("conversation not owned by caller")
)

// GetConversationByID retrieves a conversation by its ID
func GetConversationByID(ctx context.Context, db sqlscan.Querier, conversationID string) (*Conversation, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ?`
	var conv Conversation
	err := sqlscan.Get(ctx, db, &conv, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &conv, nil
}

// GetOwnedConversation retrieves a conversation and verifies the caller owns
// it. Returns ErrNotFound or ErrForbidden accordingly.
func GetOwnedConversation(ctx context.Context, db sqlscan.Querier, conversationID, userID string) (*Conversation, error) {
	conv, err := GetConversationByID(ctx, db, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	if conv.UserID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}

// ListConversationsByUser returns a user's conversations, most recent first.
func ListConversationsByUser(ctx context.Context, db sqlscan.Querier, userID string) ([]Conversation, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`
	var conversations []Conversation
	if err := sqlscan.Select(ctx, db, &conversations, query, userID); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation creates a new conversation in the database
func CreateConversation(ctx context.Context, db Execer, conversation *Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now().UTC()
	}
	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = conversation.CreatedAt
	}

	query := `INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, conversation.ID, conversation.UserID, conversation.Title, conversation.CreatedAt, conversation.UpdatedAt)
	return err
}

// TouchConversation bumps the conversation's updated_at timestamp.
func TouchConversation(ctx context.Context, db Execer, conversationID string) error {
	query := `UPDATE conversations SET updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now().UTC(), conversationID)
	return err
}

// GetMessagesByConversationID retrieves all messages for a conversation ordered by creation time
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT id, conversation_id, role, content, metadata, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at, id`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, conversationID); err != nil {
		return nil, err
	}
	return messages, nil
}

// AppendMessage persists a message. Messages are append-only; there is no
// update path by design.
func AppendMessage(ctx context.Context, db Execer, message *Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO messages (id, conversation_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, message.ID, message.ConversationID, message.Role, message.Content, message.Metadata, message.CreatedAt)
	return err
}

// CountUserMessages returns the number of user-role messages in the
// conversation. Each chat request appends exactly one, so this doubles as
// the conversation's turn counter.
func CountUserMessages(ctx context.Context, db sqlscan.Querier, conversationID string) (int, error) {
	query := `SELECT COUNT(*) AS n FROM messages WHERE conversation_id = ? AND role = 'user'`
	var row struct {
		N int `db:"n"`
	}
	if err := sqlscan.Get(ctx, db, &row, query, conversationID); err != nil {
		return 0, err
	}
	return row.N, nil
}

// UpsertDisplayedContext replaces the conversation's displayed-task context.
// The most recent list display always wins.
func UpsertDisplayedContext(ctx context.Context, db Execer, dc *DisplayedContext) error {
	if dc.CreatedAt.IsZero() {
		dc.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO displayed_contexts (conversation_id, positions, turn, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET positions = excluded.positions, turn = excluded.turn, created_at = excluded.created_at`
	_, err := db.ExecContext(ctx, query, dc.ConversationID, dc.Positions, dc.Turn, dc.CreatedAt)
	return err
}

// GetDisplayedContext returns the conversation's displayed-task context, or
// nil when none has been recorded. Expiry is the resolver's concern, not the
// store's.
func GetDisplayedContext(ctx context.Context, db sqlscan.Querier, conversationID string) (*DisplayedContext, error) {
	query := `SELECT conversation_id, positions, turn, created_at FROM displayed_contexts WHERE conversation_id = ?`
	var dc DisplayedContext
	err := sqlscan.Get(ctx, db, &dc, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &dc, nil
}
