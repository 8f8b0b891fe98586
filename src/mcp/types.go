// Package mcp implements the client side of the task tool-execution
// protocol: JSON-RPC 2.0 over HTTP, one authenticated session per chat
// request.
package mcp

import (
	"context"
	"encoding/json"
	"time"
)

// Protocol version advertised during the initialize handshake.
const ProtocolVersion = "1.0.0"

// Standard JSON-RPC error codes
const (
	ErrorCodeParse          = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternal       = -32603
)

// Request methods
const (
	MethodInitialize = "initialize"
	MethodListTools  = "tools/list"
	MethodCallTool   = "tools/call"
	MethodPing       = "ping"
)

// Message represents a JSON-RPC message
type Message struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC error
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// InitializeParams for the initialize request
type InitializeParams struct {
	ProtocolVersion string      `json:"protocolVersion"`
	ClientInfo      *ClientInfo `json:"clientInfo,omitempty"`
}

// InitializeResult from the initialize response
type InitializeResult struct {
	ProtocolVersion string      `json:"protocolVersion"`
	ServerInfo      *ServerInfo `json:"serverInfo,omitempty"`
}

// ClientInfo provides client identification
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo provides server identification
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool describes one operation the server exposes. The input schema is kept
// as raw JSON Schema; the agent decodes it when advertising operations to
// the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult from tools/list
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams for tool execution
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// CallToolResult from tool execution
type CallToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem represents a piece of content
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Text concatenates the textual content items of a result.
func (r *CallToolResult) Text() string {
	var out string
	for _, item := range r.Content {
		if item.Type == "text" {
			out += item.Text
		}
	}
	return out
}

// Transport carries one JSON-RPC exchange at a time.
type Transport interface {
	// RoundTrip sends a request and returns the matching response.
	RoundTrip(ctx context.Context, message *Message) (*Message, error)

	// Close closes the transport
	Close() error
}

// Config holds connection settings for the tool-execution server.
type Config struct {
	// URL of the JSON-RPC endpoint.
	URL string `json:"url"`

	// Timeout bounds each request.
	Timeout time.Duration `json:"timeout,omitempty"`

	// RetryCount is the total attempt count for transient transport
	// failures. Tool-level errors are never retried.
	RetryCount int `json:"retryCount,omitempty"`

	// RetryDelay is the base delay between attempts.
	RetryDelay time.Duration `json:"retryDelay,omitempty"`
}
