package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteArgs struct {
	Ticker string `json:"ticker" desc:"Stock ticker symbol" required:"true"`
}

type historyArgs struct {
	Ticker string `json:"ticker" required:"true"`
	Period string `json:"period" enum:"1d,5d,1mo" default:"3mo"`
}

func TestRegistryAdd(t *testing.T) {
	t.Run("registers single tool with Func", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("get_realtime_stock_price", "Get the latest price", func(ctx context.Context, args quoteArgs) (string, error) {
				return "price: " + args.Ticker, nil
			}),
		)

		assert.Equal(t, 1, registry.Len())
		handler, ok := registry.Get("get_realtime_stock_price")
		assert.True(t, ok)
		assert.NotNil(t, handler)

		tool, ok := registry.GetTool("get_realtime_stock_price")
		assert.True(t, ok)
		assert.Equal(t, "get_realtime_stock_price", tool.Name)
		assert.Equal(t, "Get the latest price", tool.Description)
	})

	t.Run("registers multiple tools in single Add call", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("quote", "Latest price", func(ctx context.Context, args quoteArgs) (string, error) {
				return "quote result", nil
			}),
			Func("history", "Historical prices", func(ctx context.Context, args historyArgs) (string, error) {
				return "history result", nil
			}),
		)

		assert.Equal(t, 2, registry.Len())
		assert.Contains(t, registry.Names(), "quote")
		assert.Contains(t, registry.Names(), "history")
	})

	t.Run("panics on duplicate tool name", func(t *testing.T) {
		assert.Panics(t, func() {
			NewRegistry().Add(
				Func("dupe", "First", func(ctx context.Context, args quoteArgs) (string, error) {
					return "", nil
				}),
				Func("dupe", "Duplicate", func(ctx context.Context, args quoteArgs) (string, error) {
					return "", nil
				}),
			)
		})
	})
}

func TestRegistryOrder(t *testing.T) {
	t.Run("Names and Tools preserve registration order", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("first", "First tool", func(ctx context.Context, args quoteArgs) (string, error) {
				return "first", nil
			}),
			Func("second", "Second tool", func(ctx context.Context, args quoteArgs) (string, error) {
				return "second", nil
			}),
			Func("third", "Third tool", func(ctx context.Context, args quoteArgs) (string, error) {
				return "third", nil
			}),
		)

		assert.Equal(t, []string{"first", "second", "third"}, registry.Names())

		tools := registry.Tools()
		require.Len(t, tools, 3)
		assert.Equal(t, "first", tools[0].Name)
		assert.Equal(t, "second", tools[1].Name)
		assert.Equal(t, "third", tools[2].Name)
	})

	t.Run("Unregister keeps remaining order", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("a", "A", func(ctx context.Context, args quoteArgs) (string, error) { return "", nil }),
			Func("b", "B", func(ctx context.Context, args quoteArgs) (string, error) { return "", nil }),
			Func("c", "C", func(ctx context.Context, args quoteArgs) (string, error) { return "", nil }),
		)

		registry.Unregister("b")

		assert.Equal(t, []string{"a", "c"}, registry.Names())
		assert.Equal(t, 2, registry.Len())

		_, ok := registry.Get("b")
		assert.False(t, ok)
	})
}

func TestFunc(t *testing.T) {
	t.Run("creates Registration with correct tool definition", func(t *testing.T) {
		reg := Func("myTool", "My description", func(ctx context.Context, args quoteArgs) (string, error) {
			return args.Ticker, nil
		})

		assert.Equal(t, "myTool", reg.Tool.Name)
		assert.Equal(t, "My description", reg.Tool.Description)
		assert.NotNil(t, reg.Tool.Parameters)
		assert.NotNil(t, reg.Handler)
	})

	t.Run("handler correctly unmarshals arguments", func(t *testing.T) {
		reg := Func("test", "Test", func(ctx context.Context, args quoteArgs) (string, error) {
			return "got: " + args.Ticker, nil
		})

		result, err := reg.Handler(context.Background(), ai.ToolCall{
			ID:        "call_1",
			Name:      "test",
			Arguments: `{"ticker": "AAPL"}`,
		})

		require.NoError(t, err)
		assert.Equal(t, "got: AAPL", result)
	})

	t.Run("handler returns error on invalid JSON", func(t *testing.T) {
		reg := Func("test", "Test", func(ctx context.Context, args quoteArgs) (string, error) {
			return args.Ticker, nil
		})

		_, err := reg.Handler(context.Background(), ai.ToolCall{
			ID:        "call_1",
			Name:      "test",
			Arguments: `{invalid json}`,
		})

		assert.Error(t, err)
	})
}

func TestWithHandler(t *testing.T) {
	t.Run("creates Registration from Handler", func(t *testing.T) {
		schema := json.RawMessage(`{"type": "object"}`)
		handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
			return "handled", nil
		}

		reg := WithHandler("custom", "Custom handler", schema, handler)

		assert.Equal(t, "custom", reg.Tool.Name)
		assert.Equal(t, "Custom handler", reg.Tool.Description)
		assert.Equal(t, schema, reg.Tool.Parameters)
		assert.NotNil(t, reg.Handler)
	})
}

func TestWithTool(t *testing.T) {
	t.Run("creates Registration from existing Tool", func(t *testing.T) {
		tool := ai.Tool{
			Name:        "existing",
			Description: "Existing tool",
			Parameters:  json.RawMessage(`{"type": "object"}`),
		}
		handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
			return "handled", nil
		}

		reg := WithTool(tool, handler)

		assert.Equal(t, tool.Name, reg.Tool.Name)
		assert.Equal(t, tool.Description, reg.Tool.Description)
		assert.Equal(t, tool.Parameters, reg.Tool.Parameters)
		assert.NotNil(t, reg.Handler)
	})
}

func TestRegistryExecute(t *testing.T) {
	t.Run("executes registered tool", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("greet", "Greet someone", func(ctx context.Context, args struct {
				Name string `json:"name" required:"true"`
			}) (string, error) {
				return "Hello, " + args.Name + "!", nil
			}),
		)

		result, err := registry.Execute(context.Background(), ai.ToolCall{
			ID:        "call_123",
			Name:      "greet",
			Arguments: `{"name": "World"}`,
		})

		require.NoError(t, err)
		assert.Equal(t, "call_123", result.ToolCallID)
		assert.Equal(t, "Hello, World!", result.Content)
		assert.False(t, result.IsError)
	})

	t.Run("unknown tool returns ErrToolNotFound", func(t *testing.T) {
		registry := NewRegistry()

		_, err := registry.Execute(context.Background(), ai.ToolCall{
			ID:   "call_1",
			Name: "missing",
		})

		var notFound *ErrToolNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.Name)
	})

	t.Run("handler error becomes error result", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("fails", "Always fails", func(ctx context.Context, args quoteArgs) (string, error) {
				return "", errors.New("upstream unavailable")
			}),
		)

		result, err := registry.Execute(context.Background(), ai.ToolCall{
			ID:        "call_9",
			Name:      "fails",
			Arguments: `{"ticker": "AAPL"}`,
		})

		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "call_9", result.ToolCallID)
		assert.Contains(t, result.Content, "upstream unavailable")
	})
}
