package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/taskchat/taskchat/src/aisdk"
)

// taskRefPatterns match assistant prose that embeds task identifiers or
// counts. Messages matching any of them may be dropped from the model
// context so the model never reasons from stale task data.
var taskRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btask\s+\d+`),
	regexp.MustCompile(`(?i)\(id\s*\d+\)`),
	regexp.MustCompile(`(?i)\bid\s*[:=]?\s*\d+`),
	regexp.MustCompile(`(?i)found\s+\d+\s+task`),
	regexp.MustCompile(`(?i)have\s+\d+\s+task`),
	regexp.MustCompile(`(?i)there\s+(is|are)\s+\d+\s+task`),
	regexp.MustCompile(`(?i)priority:\s*(high|medium|low|urgent)`),
}

// ContainsTaskReferences reports whether assistant text mentions concrete
// task data that may have gone stale.
func ContainsTaskReferences(content string) bool {
	for _, p := range taskRefPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// ContextWindowManager loads a conversation's history and fits it into the
// model's token budget.
type ContextWindowManager struct {
	store          ConversationStore
	maxTokens      int
	filterTaskRefs bool
	logger         *slog.Logger
}

// NewContextWindowManager builds a manager over the given store.
// filterTaskRefs enables dropping assistant messages that mention concrete
// task data (they may describe tasks that no longer exist).
func NewContextWindowManager(store ConversationStore, maxTokens int, filterTaskRefs bool, logger *slog.Logger) *ContextWindowManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextWindowManager{
		store:          store,
		maxTokens:      maxTokens,
		filterTaskRefs: filterTaskRefs,
		logger:         logger.With("component", "context_window"),
	}
}

// Load fetches the conversation's history for the given caller, verifies
// ownership, converts to agent format and truncates to the token budget.
// Returns storage.ErrNotFound / storage.ErrForbidden unchanged.
func (m *ContextWindowManager) Load(ctx context.Context, conversationID, userID string) ([]*aisdk.Message, error) {
	if _, err := m.store.OwnedConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	stored, err := m.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	items := make([]HistoryItem, 0, len(stored))
	dropped := 0
	for _, msg := range stored {
		if m.filterTaskRefs && msg.Role == "assistant" && ContainsTaskReferences(msg.Content) {
			dropped++
			continue
		}
		items = append(items, StoredItem(msg))
	}
	if dropped > 0 {
		m.logger.Debug("dropped stale task-reference messages", "conversation_id", conversationID, "count", dropped)
	}

	messages, err := ToAgentMessages(items)
	if err != nil {
		return nil, err
	}

	return Truncate(messages, m.maxTokens), nil
}

// Truncate fits messages into maxTokens. System messages are always kept,
// even when they alone exceed the budget; the remaining budget is filled
// with the newest non-system messages, oldest dropped first. Relative order
// within each group is preserved.
func Truncate(messages []*aisdk.Message, maxTokens int) []*aisdk.Message {
	var system, other []*aisdk.Message
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m)
		} else {
			other = append(other, m)
		}
	}

	available := maxTokens
	for _, m := range system {
		available -= CountMessageTokens(m)
	}

	if available <= 0 {
		return system
	}

	// Walk newest to oldest, stop at the first message that no longer fits.
	kept := make([]*aisdk.Message, 0, len(other))
	used := 0
	for i := len(other) - 1; i >= 0; i-- {
		cost := CountMessageTokens(other[i])
		if used+cost > available {
			break
		}
		kept = append(kept, other[i])
		used += cost
	}

	// kept is newest-first; reassemble in chronological order.
	out := make([]*aisdk.Message, 0, len(system)+len(kept))
	out = append(out, system...)
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, kept[i])
	}
	return out
}
