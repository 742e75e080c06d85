// Package agent provides the autonomous tool-calling loop at the core of the
// stock agent.
//
// An agent alternates between two phases: reasoning, where the model is
// invoked with the conversation so far, and acting, where every tool call
// requested by that invocation is executed and the results are fed back.
// The loop ends when the model responds without tool calls or the step
// limit is reached.
//
// # Basic Usage
//
// Create a registry, register tools with their handlers, then create an agent:
//
//	type QuoteArgs struct {
//	    Ticker string `json:"ticker" desc:"Stock ticker symbol" required:"true"`
//	}
//
//	registry := tool.NewRegistry()
//	tool.MustRegisterFunc(registry, "get_realtime_stock_price", "Get the latest price",
//	    func(ctx context.Context, args QuoteArgs) (string, error) {
//	        return lookupQuote(ctx, args.Ticker)
//	    },
//	)
//
//	a := agent.New(provider, registry)
//
//	// Run and get final result (blocking)
//	result, err := a.Run(ctx, messages, agent.WithMaxSteps(10))
//
// # Streaming Events
//
// Use RunStream to receive events as the agent executes:
//
//	events := a.RunStream(ctx, messages)
//	for e := range events {
//	    switch e.Type {
//	    case event.StepEnd:
//	        fmt.Println("reasoning:", e.Response.Content)
//	    case event.ToolCallResult:
//	        fmt.Println("tool result:", e.ToolResult.Content)
//	    }
//	}
//
// Events are delivered in execution order. Tool failures, unknown tool names
// and tool calls missing an id never abort a run; they are folded into error
// results so the model can recover on the next step.
package agent
