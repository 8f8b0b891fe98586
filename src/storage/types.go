package storage

import "time"

// Conversation is owned by exactly one user. The agent only ever reads a
// conversation or appends messages to it.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is immutable once persisted. Metadata carries raw JSON: tool_calls
// made by the assistant, operation results, or a displayed-task context.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	Metadata       *string   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// DisplayedContext records the most recent task list shown to the user in a
// conversation, so follow-up ordinals ("the second one") can be resolved.
// At most one row per conversation; a new list display replaces the old row.
type DisplayedContext struct {
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Positions      string    `json:"positions" db:"positions"` // JSON array of {position, id, title}
	Turn           int       `json:"turn" db:"turn"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
