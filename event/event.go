// Package event provides the event stream emitted by a running agent.
// Events are delivered in execution order over a channel, one channel per run.
package event

import (
	"context"
	"time"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when an agent run begins.
	RunStart Type = "run_start"

	// RunEnd fires when a run completes successfully.
	RunEnd Type = "run_end"

	// RunError fires when an unrecoverable error occurs.
	RunError Type = "run_error"
)

// Step lifecycle events
const (
	// StepStart fires when a reasoning step begins.
	StepStart Type = "step_start"

	// StepEnd fires when a reasoning step completes. The event carries the
	// provider response for the step, including any intermediate reasoning text.
	StepEnd Type = "step_end"
)

// Tool call lifecycle events
const (
	// ToolCallStart fires before a tool handler executes (contains name and arguments).
	ToolCallStart Type = "tool_call_start"

	// ToolCallResult fires with the tool execution result.
	ToolCallResult Type = "tool_call_result"
)

// Event represents an observable occurrence during an agent run.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// Response contains the provider response for StepEnd and RunEnd events.
	Response *ai.Response

	// ToolCall contains the tool call for tool-related events.
	ToolCall *ai.ToolCall

	// ToolResult contains the result for ToolCallResult events.
	ToolResult *ai.ToolResult

	// Step is the current iteration number (1-indexed).
	Step int

	// Error contains the error for RunError events.
	Error error

	// Message contains additional context (e.g., termination reason).
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel. It blocks until the
// event is accepted or the context is cancelled, so consumers observe every
// event in the order it was produced.
func Emit(ctx context.Context, ch chan<- Event, e Event) {
	e.Timestamp = time.Now()
	// Fast path keeps terminal events deliverable after cancellation as long
	// as the buffer has room.
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case ch <- e:
	case <-ctx.Done():
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
