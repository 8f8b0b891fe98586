package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// userIDHeader carries the caller identity for service-to-service auth. The
// tool server scopes every operation to this user.
const userIDHeader = "X-User-ID"

// HTTPTransport implements Transport over plain HTTP request/response
// JSON-RPC. Each RoundTrip is one POST.
type HTTPTransport struct {
	url        string
	userID     string
	httpClient *http.Client
	closed     atomic.Bool
}

// NewHTTPTransport creates a transport bound to one caller identity. The
// identity lives only as long as the transport.
func NewHTTPTransport(config Config, userID string, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &HTTPTransport{
		url:        config.URL,
		userID:     userID,
		httpClient: httpClient,
	}
}

// RoundTrip sends a request and returns the matching response.
func (t *HTTPTransport) RoundTrip(ctx context.Context, message *Message) (*Message, error) {
	if t.closed.Load() {
		return nil, fmt.Errorf("transport is closed")
	}

	message.Jsonrpc = "2.0"

	body, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, t.userID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)}
	}

	var out Message
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &out, nil
}

// Close closes the transport. The underlying http.Client is shared-nothing,
// so closing just forbids further use.
func (t *HTTPTransport) Close() error {
	t.closed.Store(true)
	return nil
}

// TransportError marks failures of the connection itself, as opposed to
// errors the tool server returned. Only transport errors are retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tool server unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
