// Package tool provides the tool registry and handler infrastructure used by
// the agent loop.
//
// This package includes:
//   - Registry and Handler types for name-keyed tool dispatch
//   - Function binding with automatic schema generation from struct tags
//
// # Basic Usage
//
// Define tool arguments as a struct with tags, then register a typed handler:
//
//	type QuoteArgs struct {
//	    Ticker string `json:"ticker" desc:"Stock ticker symbol" required:"true"`
//	}
//
//	registry := tool.NewRegistry()
//	tool.MustRegisterFunc(registry, "get_realtime_stock_price",
//	    "Get the latest traded price for a ticker",
//	    func(ctx context.Context, args QuoteArgs) (string, error) {
//	        return lookupQuote(ctx, args.Ticker)
//	    })
//
// Handlers return their result as a string, usually JSON. A handler error is
// folded into the ToolResult by Execute rather than aborting the run, so the
// model can see the failure and recover.
//
// # Supported Struct Tags
//
//	json:"name"      - Property name (fields tagged "-" are skipped)
//	desc:"text"      - Description for the model
//	required:"true"  - Mark field as required
//	enum:"a,b,c"     - Allowed values (comma-separated)
//	default:"value"  - Default value
package tool
