package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/src/agent"
	"github.com/taskchat/taskchat/src/storage"
)

// fakeRunner returns a canned response or error.
type fakeRunner struct {
	resp    *agent.ChatResponse
	err     error
	lastReq *agent.ChatRequest
}

func (f *fakeRunner) Run(_ context.Context, req *agent.ChatRequest) (*agent.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// fakeHistoryStore serves canned conversations and messages.
type fakeHistoryStore struct {
	conversations map[string]*storage.Conversation
	messages      map[string][]storage.Message
	pingErr       error
}

func (f *fakeHistoryStore) OwnedConversation(_ context.Context, conversationID, userID string) (*storage.Conversation, error) {
	c, ok := f.conversations[conversationID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if c.UserID != userID {
		return nil, storage.ErrForbidden
	}
	return c, nil
}

func (f *fakeHistoryStore) ListConversations(_ context.Context, userID string) ([]storage.Conversation, error) {
	var out []storage.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeHistoryStore) Messages(_ context.Context, conversationID string) ([]storage.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeHistoryStore) Ping(_ context.Context) error {
	return f.pingErr
}

func newTestServer(runner ChatRunner, store HistoryStore) http.Handler {
	return New(runner, store, nil).Handler()
}

func postChat(t *testing.T, handler http.Handler, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestChatHappyPath(t *testing.T) {
	runner := &fakeRunner{resp: &agent.ChatResponse{
		ConversationID:   "c1",
		AssistantMessage: "Created the task.",
		Operations: []agent.OperationResult{{
			OperationName: "create_task", Status: "success", AffectedEntityID: "t1",
		}},
	}}
	handler := newTestServer(runner, &fakeHistoryStore{})

	w := postChat(t, handler, "u1", map[string]string{
		"message":  "add buy milk",
		"timezone": "America/New_York",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body chatResponseBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "c1", body.ConversationID)
	assert.Equal(t, "Created the task.", body.Message)
	require.Len(t, body.Operations, 1)

	require.NotNil(t, runner.lastReq)
	assert.Equal(t, "u1", runner.lastReq.UserID)
	assert.Equal(t, "America/New_York", runner.lastReq.Timezone)
}

func TestChatRequiresIdentity(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, &fakeHistoryStore{})

	w := postChat(t, handler, "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatBearerFallback(t *testing.T) {
	runner := &fakeRunner{resp: &agent.ChatResponse{ConversationID: "c1"}}
	handler := newTestServer(runner, &fakeHistoryStore{})

	raw, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer token-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-123", runner.lastReq.UserID)
}

func TestChatValidation(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, &fakeHistoryStore{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty message", map[string]string{"message": ""}},
		{"bad conversation id", map[string]string{"message": "hi", "conversation_id": "not-a-uuid"}},
		{"not json", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, handler, "u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		class agent.FailureClass
		want  int
	}{
		{agent.FailureForbidden, http.StatusForbidden},
		{agent.FailureNotFound, http.StatusNotFound},
		{agent.FailureUnavailable, http.StatusServiceUnavailable},
		{agent.FailureInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		runner := &fakeRunner{err: &agent.RunError{Class: tt.class, UserMessage: "nope"}}
		handler := newTestServer(runner, &fakeHistoryStore{})

		w := postChat(t, handler, "u1", map[string]string{"message": "hi"})
		assert.Equal(t, tt.want, w.Code)

		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "nope", body.Error)
	}
}

func TestListConversations(t *testing.T) {
	store := &fakeHistoryStore{conversations: map[string]*storage.Conversation{
		"c1": {ID: "c1", UserID: "u1", Title: "groceries"},
		"c2": {ID: "c2", UserID: "other", Title: "not mine"},
	}}
	handler := newTestServer(&fakeRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Conversations []conversationBody `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Conversations, 1)
	assert.Equal(t, "c1", body.Conversations[0].ID)
}

func TestMessagesOwnership(t *testing.T) {
	store := &fakeHistoryStore{
		conversations: map[string]*storage.Conversation{
			"c1": {ID: "c1", UserID: "owner"},
		},
		messages: map[string][]storage.Message{
			"c1": {{ID: "m1", ConversationID: "c1", Role: "user", Content: "hi", CreatedAt: time.Now()}},
		},
	}
	handler := newTestServer(&fakeRunner{}, store)

	get := func(conversationID, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/conversations/"+conversationID+"/messages", nil)
		req.Header.Set("X-User-ID", userID)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := get("c1", "owner")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Messages []messageBody `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hi", body.Messages[0].Content)

	assert.Equal(t, http.StatusForbidden, get("c1", "intruder").Code)
	assert.Equal(t, http.StatusNotFound, get("missing", "owner").Code)
}

func TestHealth(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, &fakeHistoryStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestHealthDegraded(t *testing.T) {
	handler := newTestServer(&fakeRunner{}, &fakeHistoryStore{pingErr: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}
