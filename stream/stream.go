// Package stream maps agent events onto the wire protocol served to clients.
//
// The wire protocol is a flat sequence of JSON objects, one per line
// (NDJSON). Intermediate reasoning and tool output are truncated to keep
// lines bounded; the final response is never truncated.
package stream

import (
	"encoding/json"
	"unicode/utf8"
)

// Wire event types.
const (
	// TypeReasoning carries intermediate model reasoning, truncated.
	TypeReasoning = "agent_reasoning"

	// TypeToolCall announces a tool invocation with its input.
	TypeToolCall = "tool_call"

	// TypeToolResult carries tool output, truncated.
	TypeToolResult = "tool_result"

	// TypeFinalResponse carries the complete final answer, untruncated.
	TypeFinalResponse = "final_response"

	// TypeError reports a failed run.
	TypeError = "error"
)

// Truncation limits for intermediate content.
const (
	// MaxReasoningLen bounds agent_reasoning content.
	MaxReasoningLen = 1000

	// MaxToolResultLen bounds tool_result content.
	MaxToolResultLen = 2000

	truncationMarker = "... [truncated]"
)

// Event is a single line of the wire protocol.
type Event struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Input   json.RawMessage `json:"input,omitempty"`
	Step    int             `json:"step,omitempty"`
}

// Truncate bounds s to max bytes, appending a marker when content was cut.
// The cut never splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
