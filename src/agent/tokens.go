package agent

import (
	"github.com/taskchat/taskchat/src/aisdk"
)

// CountTokens estimates token count using the ~4 chars/token heuristic.
// Good enough for budget comparisons; not billing-accurate. Deterministic
// and monotonic in input length; empty input is zero.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Round up: (len + 3) / 4
	return (len(text) + 3) / 4
}

// CountMessageTokens estimates the size of a structured message by counting
// its role, content and any tool-call payloads.
func CountMessageTokens(msg *aisdk.Message) int {
	if msg == nil {
		return 0
	}

	total := CountTokens(msg.Role) + CountTokens(msg.Content)
	for _, call := range msg.ToolCalls {
		total += CountTokens(call.Function.Name)
		total += CountTokens(string(call.Function.Arguments))
	}
	return total
}

// CountConversationTokens sums the estimate across a message sequence.
func CountConversationTokens(msgs []*aisdk.Message) int {
	total := 0
	for _, m := range msgs {
		total += CountMessageTokens(m)
	}
	return total
}
