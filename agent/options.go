package agent

import (
	"time"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
)

// StopFunc is a custom predicate to determine if the agent should stop.
// It receives the current step number and the latest response.
// Return true to stop the agent.
type StopFunc func(step int, response *ai.Response) bool

// Options contains configuration for agent execution.
type Options struct {
	// MaxSteps limits the number of reasoning iterations.
	// Set to 0 for unlimited (not recommended). Default is 10.
	MaxSteps int

	// Timeout sets a deadline for the entire agent execution.
	// A value of 0 means no timeout (context deadline applies).
	Timeout time.Duration

	// HandlerTimeout sets the timeout for each individual tool handler.
	// A value of 0 means no per-handler timeout. Default is 30 seconds.
	HandlerTimeout time.Duration

	// ParallelToolCalls enables concurrent execution when a single step
	// requests multiple tool calls. Results keep the call order either way.
	// Default is false (sequential).
	ParallelToolCalls bool

	// StopPredicate is a custom termination condition.
	// Called after each step; return true to stop the agent.
	StopPredicate StopFunc

	// ChatOptions are passed through to the underlying ChatProvider.
	ChatOptions []ai.Option
}

// Option is a functional option for configuring agent execution.
type Option func(*Options)

// WithMaxSteps sets the maximum number of reasoning iterations.
// Default is 10. Set to 0 for unlimited (not recommended).
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithTimeout sets a deadline for the entire agent execution.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithHandlerTimeout sets the timeout for each individual tool handler.
// Default is 30 seconds. Set to 0 for no per-handler timeout.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithParallelToolCalls enables or disables concurrent tool execution.
// Default is false.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = enabled
	}
}

// WithStopPredicate sets a custom termination condition.
// The predicate is called after each step with the step number and response.
// Return true to stop the agent.
func WithStopPredicate(fn StopFunc) Option {
	return func(o *Options) {
		o.StopPredicate = fn
	}
}

// WithChatOptions passes options through to the ChatProvider.
// These options are applied to every chat call made by the agent.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel is a convenience option to set the model for chat calls.
func WithModel(model string) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithModel(model))
	}
}

// WithMaxTokens is a convenience option to set max tokens for chat calls.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithMaxTokens(n))
	}
}

// WithTemperature is a convenience option to set temperature for chat calls.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, ai.WithTemperature(t))
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:       10,
		HandlerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
