package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/event"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/store"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/tool"
)

// MissingToolCallID is the synthetic ID attached to tool results when the
// model emits a tool call without an id. The result is still fed back to the
// model so the run can continue.
const MissingToolCallID = "missing_tool_call_id"

// phase is the agent's position in the reason/act cycle.
type phase int

const (
	// phaseReason invokes the model with the conversation so far.
	phaseReason phase = iota

	// phaseAct executes the tool calls requested by the last reasoning step.
	phaseAct

	// phaseDone terminates the loop.
	phaseDone
)

// nextPhase decides the phase following a completed reasoning step. The step
// cap wins over pending tool calls: once it is reached the run is done even
// if the last response requested tools. Otherwise a response carrying tool
// calls moves to acting and anything else finishes the run.
func nextPhase(response *ai.Response, step, maxSteps int) phase {
	if maxSteps > 0 && step >= maxSteps {
		return phaseDone
	}
	if response != nil && len(response.ToolCalls) > 0 {
		return phaseAct
	}
	return phaseDone
}

// Agent orchestrates autonomous tool-calling conversations. Each run
// alternates between reasoning (one provider invocation) and acting
// (executing every tool call from that invocation) until the model produces
// a response with no tool calls or a step limit is hit.
type Agent struct {
	provider ai.ChatProvider
	registry *tool.Registry
}

// New creates a new Agent with the given chat provider and tool registry.
func New(provider ai.ChatProvider, registry *tool.Registry) *Agent {
	return &Agent{
		provider: provider,
		registry: registry,
	}
}

// Run executes the agent loop and returns the final result.
// This is a blocking call that runs until the agent completes.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	eventCh := a.RunStream(ctx, messages, opts...)

	result := &Result{
		history: store.NewMessageStoreFrom(messages, nil),
	}

	var totalUsage ai.Usage
	var lastResponse *ai.Response

	for ev := range eventCh {
		if ev.Step > result.Steps {
			result.Steps = ev.Step
		}

		switch ev.Type {
		case event.StepEnd:
			lastResponse = ev.Response
			if ev.Response != nil {
				totalUsage.InputTokens += ev.Response.Usage.InputTokens
				totalUsage.OutputTokens += ev.Response.Usage.OutputTokens

				if len(ev.Response.ToolCalls) > 0 {
					result.history.Append(ai.Message{
						Role:      ai.RoleAssistant,
						Content:   ev.Response.Content,
						ToolCalls: ev.Response.ToolCalls,
					})
				}
			}

		case event.ToolCallResult:
			if ev.ToolResult != nil {
				result.history.Append(ai.NewToolResultMessage(*ev.ToolResult))
			}

		case event.RunEnd:
			result.Response = ev.Response
			result.Termination = TerminationReason(ev.Message)
			if result.Response == nil {
				result.Response = lastResponse
			}

		case event.RunError:
			result.Error = ev.Error
			result.Termination = TerminationError
		}
	}

	result.TotalUsage = totalUsage
	return result, result.Error
}

// RunStream executes the agent loop and returns a channel of events.
// Events arrive in execution order; the channel is closed when the agent
// completes or encounters a fatal error. Callers must drain the channel.
func (a *Agent) RunStream(ctx context.Context, messages []ai.Message, opts ...Option) <-chan Event {
	eventCh := event.NewChannel()

	go a.runLoop(ctx, messages, eventCh, opts...)

	return eventCh
}

func (a *Agent) runLoop(ctx context.Context, messages []ai.Message, eventCh chan<- Event, opts ...Option) {
	defer close(eventCh)

	options := ApplyOptions(opts...)

	// Apply overall timeout if specified
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	event.Emit(ctx, eventCh, Event{Type: event.RunStart})

	// Prepare chat options with tools
	chatOpts := append([]ai.Option{ai.WithTools(a.registry.Tools())}, options.ChatOptions...)

	// Copy messages to avoid mutating the original
	history := store.NewMessageStoreFrom(messages, nil)

	var response *ai.Response
	step := 0

	for current := phaseReason; current != phaseDone; {
		switch current {
		case phaseReason:
			step++

			// Check termination conditions before invoking the model
			if reason := checkTermination(ctx); reason != "" {
				a.emitComplete(ctx, eventCh, step-1, response, reason)
				return
			}

			event.Emit(ctx, eventCh, Event{Type: event.StepStart, Step: step})

			resp, err := a.provider.Chat(ctx, history.Messages(), chatOpts...)
			if err != nil {
				event.Emit(ctx, eventCh, Event{Type: event.RunError, Step: step, Error: err})
				return
			}
			response = resp

			event.Emit(ctx, eventCh, Event{Type: event.StepEnd, Step: step, Response: resp})

			// Check custom stop predicate
			if options.StopPredicate != nil && options.StopPredicate(step, resp) {
				a.emitComplete(ctx, eventCh, step, resp, TerminationCustom)
				return
			}

			current = nextPhase(resp, step, options.MaxSteps)
			if current == phaseDone {
				reason := TerminationComplete
				if len(resp.ToolCalls) > 0 {
					// Step cap reached with tool calls still pending.
					reason = TerminationMaxSteps
				}
				a.emitComplete(ctx, eventCh, step, resp, reason)
				return
			}

		case phaseAct:
			history.Append(ai.Message{
				Role:      ai.RoleAssistant,
				Content:   response.Content,
				ToolCalls: response.ToolCalls,
			})

			results := a.executeToolCalls(ctx, response.ToolCalls, options, step, eventCh)
			for _, r := range results {
				history.Append(ai.NewToolResultMessage(r))
			}

			current = phaseReason
		}
	}
}

// executeToolCalls runs every tool call from a reasoning step and returns
// the results in the order the calls were issued.
func (a *Agent) executeToolCalls(ctx context.Context, toolCalls []ai.ToolCall, options *Options, step int, eventCh chan<- Event) []ai.ToolResult {
	if options.ParallelToolCalls && len(toolCalls) > 1 {
		return a.executeToolCallsParallel(ctx, toolCalls, options, step, eventCh)
	}

	results := make([]ai.ToolResult, len(toolCalls))
	for i := range toolCalls {
		tc := toolCalls[i]
		event.Emit(ctx, eventCh, Event{Type: event.ToolCallStart, Step: step, ToolCall: &tc})
		results[i] = a.dispatch(ctx, tc, options)
		event.Emit(ctx, eventCh, Event{Type: event.ToolCallResult, Step: step, ToolCall: &tc, ToolResult: &results[i]})
	}
	return results
}

// executeToolCallsParallel runs handlers concurrently while keeping the event
// stream deterministic: starts are emitted before any handler runs and results
// are emitted in call order after all handlers finish.
func (a *Agent) executeToolCallsParallel(ctx context.Context, toolCalls []ai.ToolCall, options *Options, step int, eventCh chan<- Event) []ai.ToolResult {
	for i := range toolCalls {
		event.Emit(ctx, eventCh, Event{Type: event.ToolCallStart, Step: step, ToolCall: &toolCalls[i]})
	}

	results := make([]ai.ToolResult, len(toolCalls))
	var wg sync.WaitGroup

	for i, tc := range toolCalls {
		wg.Add(1)
		go func(idx int, call ai.ToolCall) {
			defer wg.Done()
			results[idx] = a.dispatch(ctx, call, options)
		}(i, tc)
	}

	wg.Wait()

	for i := range toolCalls {
		event.Emit(ctx, eventCh, Event{Type: event.ToolCallResult, Step: step, ToolCall: &toolCalls[i], ToolResult: &results[i]})
	}
	return results
}

// dispatch resolves and executes a single tool call. Failures never abort the
// run; they come back as error results so the model can see them and recover.
func (a *Agent) dispatch(ctx context.Context, tc ai.ToolCall, options *Options) ai.ToolResult {
	if tc.ID == "" {
		return ai.ToolResult{
			ToolCallID: MissingToolCallID,
			Content:    fmt.Sprintf("Error: tool call for '%s' is missing an id", tc.Name),
			IsError:    true,
		}
	}

	execCtx := ctx
	if options.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, options.HandlerTimeout)
		defer cancel()
	}

	result, err := a.registry.Execute(execCtx, tc)
	if err != nil {
		var notFound *tool.ErrToolNotFound
		if errors.As(err, &notFound) {
			return ai.ToolResult{
				ToolCallID: tc.ID,
				Content:    fmt.Sprintf("Tool '%s' not found. Available tools: %s", tc.Name, strings.Join(a.registry.Names(), ", ")),
				IsError:    true,
			}
		}
		return ai.ToolResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return result
}

// checkTermination reports context-driven termination before a reasoning
// step. The step cap is enforced by nextPhase after each response so a
// capped run never executes its pending tool calls.
func checkTermination(ctx context.Context) TerminationReason {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return TerminationTimeout
		}
		return TerminationCancelled
	}
	return ""
}

func (a *Agent) emitComplete(ctx context.Context, ch chan<- Event, step int, response *ai.Response, reason TerminationReason) {
	event.Emit(ctx, ch, Event{
		Type:     event.RunEnd,
		Step:     step,
		Response: response,
		Message:  string(reason),
	})
}
