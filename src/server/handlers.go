package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/taskchat/taskchat/src/agent"
	"github.com/taskchat/taskchat/src/storage"
)

const maxRequestBody = 64 * 1024

type chatRequestBody struct {
	ConversationID string `json:"conversation_id,omitempty" validate:"omitempty,uuid4"`
	Message        string `json:"message" validate:"required,max=4000"`
	Timezone       string `json:"timezone,omitempty" validate:"max=64"`
	Locale         string `json:"locale,omitempty" validate:"max=16"`
}

type chatResponseBody struct {
	ConversationID string                  `json:"conversation_id"`
	Message        string                  `json:"message"`
	Operations     []agent.OperationResult `json:"operations,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp, err := s.runner.Run(r.Context(), &agent.ChatRequest{
		ConversationID: body.ConversationID,
		Message:        body.Message,
		Timezone:       body.Timezone,
		Locale:         body.Locale,
		UserID:         userIDFrom(r.Context()),
	})
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponseBody{
		ConversationID: resp.ConversationID,
		Message:        resp.AssistantMessage,
		Operations:     resp.Operations,
	})
}

type conversationBody struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.ListConversations(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]conversationBody, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, conversationBody{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": out})
}

type messageBody struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	userID := userIDFrom(r.Context())

	if _, err := s.store.OwnedConversation(r.Context(), conversationID, userID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		case errors.Is(err, storage.ErrForbidden):
			writeError(w, http.StatusForbidden, "access denied")
		default:
			s.logger.Error("conversation lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load conversation")
		}
		return
	}

	messages, err := s.store.Messages(r.Context(), conversationID)
	if err != nil {
		s.logger.Error("load messages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	out := make([]messageBody, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageBody{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	dbStatus := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		dbStatus = "unreachable"
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		body["memory_used_percent"] = vm.UsedPercent
	}

	writeJSON(w, code, body)
}
