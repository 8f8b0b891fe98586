package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat/src/storage"
)

// fakeStore is an in-memory ConversationStore for tests.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]*storage.Conversation
	messages      map[string][]storage.Message
	displayed     map[string]*storage.DisplayedContext
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*storage.Conversation{},
		messages:      map[string][]storage.Message{},
		displayed:     map[string]*storage.DisplayedContext{},
	}
}

func (f *fakeStore) OwnedConversation(_ context.Context, conversationID, userID string) (*storage.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if c.UserID != userID {
		return nil, storage.ErrForbidden
	}
	return c, nil
}

func (f *fakeStore) CreateConversation(_ context.Context, conversation *storage.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	f.conversations[conversation.ID] = conversation
	return nil
}

func (f *fakeStore) Touch(_ context.Context, conversationID string) error {
	return nil
}

func (f *fakeStore) Messages(_ context.Context, conversationID string) ([]storage.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Message(nil), f.messages[conversationID]...), nil
}

func (f *fakeStore) Append(_ context.Context, message *storage.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	f.messages[message.ConversationID] = append(f.messages[message.ConversationID], *message)
	return nil
}

func (f *fakeStore) TurnCount(_ context.Context, conversationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages[conversationID] {
		if m.Role == "user" {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DisplayedContext(_ context.Context, conversationID string) (*storage.DisplayedContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayed[conversationID], nil
}

func (f *fakeStore) SaveDisplayedContext(_ context.Context, dc *storage.DisplayedContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayed[dc.ConversationID] = dc
	return nil
}
