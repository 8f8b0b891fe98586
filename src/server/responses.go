package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskchat/taskchat/src/agent"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeRunError maps an orchestration failure class onto an HTTP status.
// Only the user-facing message leaves the process.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var runErr *agent.RunError
	if !errors.As(err, &runErr) {
		s.logger.Error("unclassified chat failure", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch runErr.Class {
	case agent.FailureForbidden:
		status = http.StatusForbidden
	case agent.FailureNotFound:
		status = http.StatusNotFound
	case agent.FailureUnavailable:
		status = http.StatusServiceUnavailable
	}

	writeError(w, status, runErr.UserMessage)
}
