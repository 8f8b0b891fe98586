// Package server exposes the chat service over HTTP: the chat endpoint,
// conversation history reads, and a health probe.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taskchat/taskchat/src/agent"
	"github.com/taskchat/taskchat/src/storage"
)

// ChatRunner executes one chat turn. *agent.Orchestrator implements it.
type ChatRunner interface {
	Run(ctx context.Context, req *agent.ChatRequest) (*agent.ChatResponse, error)
}

// HistoryStore is the read surface the HTTP layer needs beyond chat.
type HistoryStore interface {
	OwnedConversation(ctx context.Context, conversationID, userID string) (*storage.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]storage.Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]storage.Message, error)
	Ping(ctx context.Context) error
}

// Server wires the handlers together.
type Server struct {
	runner    ChatRunner
	store     HistoryStore
	validate  *validator.Validate
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a server.
func New(runner ChatRunner, store HistoryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:    runner,
		store:     store,
		validate:  validator.New(),
		logger:    logger.With("component", "http"),
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /chat", s.authenticated(s.handleChat))
	mux.Handle("GET /conversations", s.authenticated(s.handleListConversations))
	mux.Handle("GET /conversations/{id}/messages", s.authenticated(s.handleMessages))

	return s.logRequests(mux)
}
