package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrSessionClosed indicates use of a session after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrToolFailed indicates the server executed the tool and reported an
	// application-level failure. Never retried.
	ErrToolFailed = errors.New("tool execution failed")
)

// Session is a request-scoped, authenticated connection to the tool server.
// It is not safe for concurrent use; each orchestration run owns one.
type Session struct {
	transport  Transport
	config     Config
	logger     *slog.Logger
	requestID  atomic.Int64
	closed     atomic.Bool
	serverInfo *ServerInfo

	toolsMu sync.Mutex
	tools   []Tool // cached for the session's lifetime
}

// Connect opens a session for the given caller and performs the initialize
// handshake. The credential (the caller identity header) lives only inside
// the session's transport.
func Connect(ctx context.Context, config Config, userID string, logger *slog.Logger) (*Session, error) {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		transport: NewHTTPTransport(config, userID, nil),
		config:    config,
		logger:    logger.With("component", "tool_session"),
	}

	result, err := s.initialize(ctx)
	if err != nil {
		s.transport.Close()
		return nil, err
	}
	s.serverInfo = result.ServerInfo

	s.logger.Debug("tool session established", "server", serverName(result.ServerInfo))
	return s, nil
}

// WithConnection runs fn inside a session and guarantees teardown on every
// exit path, including panics and context cancellation.
func WithConnection(ctx context.Context, config Config, userID string, logger *slog.Logger, fn func(*Session) error) error {
	session, err := Connect(ctx, config, userID, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	return fn(session)
}

// Close closes the session. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.transport.Close()
}

// ListOperations returns the operations the server exposes, fetching them at
// most once per session.
func (s *Session) ListOperations(ctx context.Context) ([]Tool, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	s.toolsMu.Lock()
	defer s.toolsMu.Unlock()

	if s.tools != nil {
		return s.tools, nil
	}

	resp, err := s.roundTripWithRetry(ctx, MethodListTools, nil)
	if err != nil {
		return nil, err
	}

	var result ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tools/list result: %w", err)
	}

	s.tools = result.Tools
	return s.tools, nil
}

// Invoke executes one operation. Transport failures are retried with the
// session's bounded retry policy; errors reported by the tool itself are
// returned as-is so the model can see and correct them.
func (s *Session) Invoke(ctx context.Context, name string, arguments map[string]interface{}) (*CallToolResult, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	params := CallToolParams{Name: name, Arguments: arguments}
	resp, err := s.roundTripWithRetry(ctx, MethodCallTool, params)
	if err != nil {
		return nil, err
	}

	var result CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tools/call result: %w", err)
	}

	return &result, nil
}

// initialize performs the handshake.
func (s *Session) initialize(ctx context.Context) (*InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      &ClientInfo{Name: "taskchat", Version: "0.1.0"},
	}

	resp, err := s.roundTripWithRetry(ctx, MethodInitialize, params)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode initialize result: %w", err)
	}

	return &result, nil
}

// roundTripWithRetry sends one request, retrying only on TransportError.
// A JSON-RPC error response means the server is reachable and has made a
// decision; it is wrapped in ErrToolFailed and never retried.
func (s *Session) roundTripWithRetry(ctx context.Context, method string, params interface{}) (*Message, error) {
	msg := &Message{
		ID:     s.requestID.Add(1),
		Method: method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		msg.Params = raw
	}

	var lastErr error
	for attempt := 0; attempt < s.config.RetryCount; attempt++ {
		resp, err := s.transport.RoundTrip(ctx, msg)
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) && ctx.Err() == nil {
				lastErr = err
				s.logger.Debug("transport error, retrying", "method", method, "attempt", attempt+1, "error", err)
				if !sleepCtx(ctx, s.config.RetryDelay*time.Duration(attempt+1)) {
					return nil, ctx.Err()
				}
				continue
			}
			return nil, err
		}

		if resp.Error != nil {
			return nil, fmt.Errorf("%w: %s (code %d)", ErrToolFailed, resp.Error.Message, resp.Error.Code)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("tool server unreachable after %d attempts: %w", s.config.RetryCount, lastErr)
}

func serverName(info *ServerInfo) string {
	if info == nil {
		return "unknown"
	}
	return info.Name
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
