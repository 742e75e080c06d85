package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))

	long := strings.Repeat("a", 1500)
	got := Truncate(long, MaxReasoningLen)
	assert.Equal(t, MaxReasoningLen+len("... [truncated]"), len(got))
	assert.True(t, strings.HasSuffix(got, "... [truncated]"))

	assert.Equal(t, long, Truncate(long, 0))

	// The cut lands on a rune boundary, never inside a multi-byte sequence.
	multibyte := strings.Repeat("日", 400)
	cut := Truncate(multibyte, MaxReasoningLen)
	trimmed := strings.TrimSuffix(cut, "... [truncated]")
	assert.True(t, utf8.ValidString(trimmed))
	assert.Equal(t, MaxReasoningLen-1, len(trimmed))
}

func TestMap(t *testing.T) {
	t.Run("reasoning step with tool calls", func(t *testing.T) {
		events := Map(event.Event{
			Type: event.StepEnd,
			Step: 1,
			Response: &ai.Response{
				Content:   "I should check the price first.",
				ToolCalls: []ai.ToolCall{{ID: "c1", Name: "get_quote"}},
			},
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeReasoning, events[0].Type)
		assert.Equal(t, "I should check the price first.", events[0].Content)
		assert.Equal(t, 1, events[0].Step)
	})

	t.Run("reasoning is truncated", func(t *testing.T) {
		events := Map(event.Event{
			Type: event.StepEnd,
			Response: &ai.Response{
				Content:   strings.Repeat("x", MaxReasoningLen+500),
				ToolCalls: []ai.ToolCall{{ID: "c1", Name: "get_quote"}},
			},
		})

		require.Len(t, events, 1)
		assert.True(t, strings.HasSuffix(events[0].Content, "... [truncated]"))
	})

	t.Run("final reasoning step still surfaces its text", func(t *testing.T) {
		events := Map(event.Event{
			Type:     event.StepEnd,
			Step:     2,
			Response: &ai.Response{Content: "final words"},
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeReasoning, events[0].Type)
		assert.Equal(t, "final words", events[0].Content)
	})

	t.Run("step with no visible text maps to nothing", func(t *testing.T) {
		events := Map(event.Event{
			Type: event.StepEnd,
			Response: &ai.Response{
				ToolCalls: []ai.ToolCall{{ID: "c1", Name: "get_quote"}},
			},
		})
		assert.Empty(t, events)
	})

	t.Run("tool call start carries name and input", func(t *testing.T) {
		events := Map(event.Event{
			Type:     event.ToolCallStart,
			Step:     2,
			ToolCall: &ai.ToolCall{ID: "c1", Name: "get_quote", Arguments: `{"ticker": "AAPL"}`},
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeToolCall, events[0].Type)
		assert.Equal(t, "get_quote", events[0].Tool)
		assert.JSONEq(t, `{"ticker": "AAPL"}`, string(events[0].Input))
		assert.Equal(t, 2, events[0].Step)
	})

	t.Run("invalid argument JSON is wrapped as a string", func(t *testing.T) {
		events := Map(event.Event{
			Type:     event.ToolCallStart,
			ToolCall: &ai.ToolCall{ID: "c1", Name: "get_quote", Arguments: "not json"},
		})

		require.Len(t, events, 1)
		assert.Equal(t, `"not json"`, string(events[0].Input))
	})

	t.Run("tool result is truncated", func(t *testing.T) {
		events := Map(event.Event{
			Type:       event.ToolCallResult,
			ToolCall:   &ai.ToolCall{ID: "c1", Name: "get_quote"},
			ToolResult: &ai.ToolResult{ToolCallID: "c1", Content: strings.Repeat("y", MaxToolResultLen+1)},
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeToolResult, events[0].Type)
		assert.Equal(t, "get_quote", events[0].Tool)
		assert.True(t, strings.HasSuffix(events[0].Content, "... [truncated]"))
	})

	t.Run("final response is never truncated", func(t *testing.T) {
		long := strings.Repeat("z", MaxReasoningLen*5)
		events := Map(event.Event{
			Type:     event.RunEnd,
			Step:     3,
			Response: &ai.Response{Content: long},
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeFinalResponse, events[0].Type)
		assert.Equal(t, long, events[0].Content)
	})

	t.Run("run end without a response terminates with an error event", func(t *testing.T) {
		events := Map(event.Event{
			Type:    event.RunEnd,
			Message: "timeout",
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeError, events[0].Type)
		assert.Equal(t, "agent run ended without a response: timeout", events[0].Content)
	})

	t.Run("run error maps to error event", func(t *testing.T) {
		events := Map(event.Event{
			Type:  event.RunError,
			Error: errors.New("model unavailable"),
		})

		require.Len(t, events, 1)
		assert.Equal(t, TypeError, events[0].Type)
		assert.Equal(t, "model unavailable", events[0].Content)
	})

	t.Run("lifecycle events map to nothing", func(t *testing.T) {
		assert.Empty(t, Map(event.Event{Type: event.RunStart}))
		assert.Empty(t, Map(event.Event{Type: event.StepStart, Step: 1}))
	})
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write(Event{Type: TypeReasoning, Content: "thinking", Step: 1}))
	require.NoError(t, w.Write(Event{Type: TypeFinalResponse, Content: "done"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, TypeReasoning, first.Type)
	assert.Equal(t, "thinking", first.Content)
	assert.Equal(t, 1, first.Step)

	var second Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, TypeFinalResponse, second.Type)
	assert.Zero(t, second.Step)
}
