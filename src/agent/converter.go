package agent

import (
	"encoding/json"
	"fmt"

	"github.com/taskchat/taskchat/src/aisdk"
	"github.com/taskchat/taskchat/src/storage"
)

// MessageMetadata is the JSON document carried in a stored message's
// metadata column. ToolCalls round-trips verbatim through conversion;
// Operations records what the assistant did during the turn.
type MessageMetadata struct {
	ToolCalls  []aisdk.ToolCall  `json:"tool_calls,omitempty"`
	Operations []OperationResult `json:"operations,omitempty"`
}

// OperationResult describes one tool invocation made during a turn. It is
// constructed per run and persisted only as assistant-message metadata.
type OperationResult struct {
	OperationName    string `json:"operation_name"`
	Status           string `json:"status"` // "success" or "error"
	AffectedEntityID string `json:"affected_entity_id,omitempty"`
	Detail           string `json:"detail,omitempty"`
}

// HistoryItem is the sum type for conversation history elements: a message
// may arrive in the stored shape (from the database) or already in the
// agent-native shape (passed through from a prior orchestration step).
// Exactly one field is set.
type HistoryItem struct {
	Stored *storage.Message
	Native *aisdk.Message
}

// StoredItem wraps a stored message.
func StoredItem(m storage.Message) HistoryItem {
	return HistoryItem{Stored: &m}
}

// NativeItem wraps an agent-native message.
func NativeItem(m *aisdk.Message) HistoryItem {
	return HistoryItem{Native: m}
}

// ToAgentMessage converts one history item to the agent-native shape.
// Native items pass through untouched; stored items are decoded, with
// tool-call metadata preserved losslessly.
func ToAgentMessage(item HistoryItem) (*aisdk.Message, error) {
	switch {
	case item.Native != nil:
		return item.Native, nil
	case item.Stored != nil:
		return storedToAgent(item.Stored)
	default:
		return nil, fmt.Errorf("history item has neither stored nor native form")
	}
}

// ToAgentMessages converts a heterogeneous history sequence.
func ToAgentMessages(items []HistoryItem) ([]*aisdk.Message, error) {
	out := make([]*aisdk.Message, 0, len(items))
	for i, item := range items {
		msg, err := ToAgentMessage(item)
		if err != nil {
			return nil, fmt.Errorf("history item %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// ToStoredMessage is the inverse conversion, used when persisting an
// agent-produced message. Tool calls and operation results land in the
// metadata column.
func ToStoredMessage(conversationID string, msg *aisdk.Message, operations []OperationResult) (*storage.Message, error) {
	stored := &storage.Message{
		ConversationID: conversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}

	if len(msg.ToolCalls) > 0 || len(operations) > 0 {
		meta := MessageMetadata{
			ToolCalls:  msg.ToolCalls,
			Operations: operations,
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message metadata: %w", err)
		}
		s := string(raw)
		stored.Metadata = &s
	}

	return stored, nil
}

func storedToAgent(m *storage.Message) (*aisdk.Message, error) {
	out := &aisdk.Message{
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}

	if m.Metadata != nil && *m.Metadata != "" {
		var meta MessageMetadata
		if err := json.Unmarshal([]byte(*m.Metadata), &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for message %s: %w", m.ID, err)
		}
		out.ToolCalls = meta.ToolCalls
	}

	return out, nil
}

// DecodeMetadata parses a stored message's metadata column. Returns the
// zero value for messages without metadata.
func DecodeMetadata(m *storage.Message) (MessageMetadata, error) {
	var meta MessageMetadata
	if m.Metadata == nil || *m.Metadata == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(*m.Metadata), &meta); err != nil {
		return meta, fmt.Errorf("failed to decode metadata for message %s: %w", m.ID, err)
	}
	return meta, nil
}
