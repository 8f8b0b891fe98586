package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskchat/taskchat/src/aisdk"
)

func TestCountTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"hello world", 3},
		{strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CountTokens(tt.text), "%q", tt.text)
	}
}

func TestCountTokensMonotonic(t *testing.T) {
	prev := 0
	for i := 0; i < 64; i++ {
		n := CountTokens(strings.Repeat("a", i))
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestCountMessageTokens(t *testing.T) {
	assert.Equal(t, 0, CountMessageTokens(nil))

	msg := &aisdk.Message{Role: "user", Content: "buy milk"}
	assert.Equal(t, CountTokens("user")+CountTokens("buy milk"), CountMessageTokens(msg))

	withCall := &aisdk.Message{
		Role: "assistant",
		ToolCalls: []aisdk.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: aisdk.FunctionCall{
				Name:      "create_task",
				Arguments: json.RawMessage(`{"title":"buy milk"}`),
			},
		}},
	}
	want := CountTokens("assistant") + CountTokens("create_task") + CountTokens(`{"title":"buy milk"}`)
	assert.Equal(t, want, CountMessageTokens(withCall))
}

func TestCountConversationTokens(t *testing.T) {
	msgs := []*aisdk.Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "hi"},
	}
	assert.Equal(t, CountMessageTokens(msgs[0])+CountMessageTokens(msgs[1]), CountConversationTokens(msgs))
	assert.Equal(t, 0, CountConversationTokens(nil))
}
