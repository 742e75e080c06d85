package stream

import (
	"encoding/json"
	"fmt"

	"github.com/alexandrerays/bedrock-agentcore-stock-agent/event"
)

// Map converts one agent event into zero or more wire events.
//
// Every reasoning step with visible text surfaces it as agent_reasoning,
// truncated; tool calls arrive through ToolCallStart events. The final model
// response additionally arrives untruncated on RunEnd.
func Map(ev event.Event) []Event {
	switch ev.Type {
	case event.StepEnd:
		if ev.Response == nil || ev.Response.Content == "" {
			return nil
		}
		return []Event{{
			Type:    TypeReasoning,
			Content: Truncate(ev.Response.Content, MaxReasoningLen),
			Step:    ev.Step,
		}}

	case event.ToolCallStart:
		if ev.ToolCall == nil {
			return nil
		}
		return []Event{{
			Type:  TypeToolCall,
			Tool:  ev.ToolCall.Name,
			Input: rawInput(ev.ToolCall.Arguments),
			Step:  ev.Step,
		}}

	case event.ToolCallResult:
		if ev.ToolResult == nil {
			return nil
		}
		out := Event{
			Type:    TypeToolResult,
			Content: Truncate(ev.ToolResult.Content, MaxToolResultLen),
			Step:    ev.Step,
		}
		if ev.ToolCall != nil {
			out.Tool = ev.ToolCall.Name
		}
		return []Event{out}

	case event.RunEnd:
		if ev.Response == nil {
			// A run that ended before its first response still has to
			// terminate the wire stream.
			msg := "agent run ended without a response"
			if ev.Message != "" {
				msg = fmt.Sprintf("%s: %s", msg, ev.Message)
			}
			return []Event{{
				Type:    TypeError,
				Content: msg,
				Step:    ev.Step,
			}}
		}
		return []Event{{
			Type:    TypeFinalResponse,
			Content: ev.Response.Content,
			Step:    ev.Step,
		}}

	case event.RunError:
		msg := "agent run failed"
		if ev.Error != nil {
			msg = ev.Error.Error()
		}
		return []Event{{
			Type:    TypeError,
			Content: msg,
			Step:    ev.Step,
		}}
	}

	return nil
}

// rawInput passes tool arguments through as JSON when they parse, and wraps
// them as a JSON string otherwise so the wire line stays valid.
func rawInput(arguments string) json.RawMessage {
	if arguments == "" {
		return nil
	}
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	quoted, err := json.Marshal(arguments)
	if err != nil {
		return nil
	}
	return quoted
}
