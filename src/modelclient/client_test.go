package modelclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/src/aisdk"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "test-model",
		RetryCount: 3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{Model: "m"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req aisdk.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{
			Choices: []aisdk.Choice{{
				Message:      aisdk.Message{Role: "assistant", Content: "hello"},
				FinishReason: "stop",
			}},
			Usage: aisdk.Usage{TotalTokens: 10},
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	resp, err := c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{
		Messages: []*aisdk.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
}

func TestCreateChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAuthErrorNotRetried(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(aisdk.ErrorResponse{
			Error: aisdk.Error{Message: "bad key", Type: "invalid_request_error"},
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, int64(1), attempts.Load())
}

func TestRateLimitRetried(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(aisdk.ErrorResponse{Error: aisdk.Error{Message: "slow down"}})
			return
		}
		json.NewEncoder(w).Encode(aisdk.ChatCompletionResponse{
			Choices: []aisdk.Choice{{Message: aisdk.Message{Role: "assistant", Content: "ok"}}},
		})
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	resp, err := c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Choices[0].Message.Content)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestServerErrorRetriedThenFails(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.CreateChatCompletion(context.Background(), &aisdk.ChatCompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, int64(3), attempts.Load())
}
