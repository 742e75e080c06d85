// Command stockagent runs the stock market conversational agent.
//
// It serves the Bedrock AgentCore HTTP surface, answers one-shot questions
// from the command line, and can expose its market tools over MCP stdio.
//
// Usage:
//
//	stockagent serve
//	stockagent ask "What is the current AMZN price?"
//	stockagent mcp
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/event"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/knowledge"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/market"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/mcp"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/provider/anthropic"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/provider/google"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/provider/openai"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/server"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/stocktools"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/tool"
)

const systemPrompt = `You are a stock market assistant. You answer questions about
stock prices and company financials using your tools. Always fetch live data
instead of guessing, cite the ticker and currency in your answers, and search
the financial document knowledge base for questions about filings or earnings.`

var rootCmd = &cobra.Command{
	Use:           "stockagent",
	Short:         "Stock market conversational agent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the AgentCore HTTP server",
	RunE:  runServe,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question and stream the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the stock tools over MCP stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildProvider creates the chat provider selected by config.
func buildProvider(cfg *Config) (ai.ChatProvider, error) {
	switch cfg.Provider {
	case "anthropic":
		var opts []anthropic.ClientOption
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(cfg.AnthropicKey, opts...), nil
	case "openai":
		var opts []openai.ClientOption
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.OpenAIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// buildEmbedder creates the embedding provider, or nil when disabled.
func buildEmbedder(ctx context.Context, cfg *Config) (knowledge.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
		return openai.New(cfg.OpenAIKey), nil
	case "google":
		if cfg.GoogleKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for google embeddings")
		}
		return google.New(ctx, cfg.GoogleKey)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// buildRetriever indexes the knowledge directory. A missing or empty
// directory is not fatal; the document search tool reports itself
// unavailable instead.
func buildRetriever(ctx context.Context, cfg *Config, log *slog.Logger) *knowledge.Retriever {
	if cfg.EmbeddingProvider == "none" {
		log.Info("knowledge base disabled")
		return nil
	}

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		log.Warn("embedder unavailable, knowledge base disabled", "error", err)
		return nil
	}

	retriever, err := knowledge.NewRetrieverFromDir(ctx, cfg.KnowledgeDir, embedder)
	if err != nil {
		log.Warn("knowledge base unavailable", "dir", cfg.KnowledgeDir, "error", err)
		return nil
	}

	stats := retriever.Stats()
	log.Info("knowledge base ready", "chunks", stats.Chunks, "sources", len(stats.Sources))
	return retriever
}

// buildAgent wires the provider, tools, and knowledge base into an agent.
func buildAgent(ctx context.Context, cfg *Config, log *slog.Logger) (*agent.Agent, *knowledge.Retriever, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	retriever := buildRetriever(ctx, cfg, log)

	registry := tool.NewRegistry()
	stocktools.Register(registry, market.NewClient(), retriever)
	log.Info("registered tools", "names", registry.Names())

	return agent.New(provider, registry), retriever, nil
}

// runOptions translates config into per-run agent options.
func runOptions(cfg *Config) []agent.Option {
	opts := []agent.Option{
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithTimeout(cfg.Timeout),
		agent.WithMaxTokens(cfg.MaxTokens),
		agent.WithTemperature(cfg.Temperature),
	}
	if cfg.Model != "" {
		opts = append(opts, agent.WithModel(cfg.Model))
	}
	return opts
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := setupLogger(cfg.LogLevel)

	ctx := cmd.Context()
	a, retriever, err := buildAgent(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(a,
		server.WithRetriever(retriever),
		server.WithRunOptions(runOptions(cfg)...),
		server.WithSystemPrompt(systemPrompt),
		server.WithDevEndpoints(cfg.DevEndpoints()),
		server.WithLogger(log),
	)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "provider", cfg.Provider)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := setupLogger(cfg.LogLevel)

	ctx := cmd.Context()
	a, _, err := buildAgent(ctx, cfg, log)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	messages := []ai.Message{
		ai.NewSystemMessage(systemPrompt),
		ai.NewUserMessage(question),
	}

	for ev := range a.RunStream(ctx, messages, runOptions(cfg)...) {
		switch ev.Type {
		case event.StepEnd:
			if ev.Response != nil && len(ev.Response.ToolCalls) > 0 && ev.Response.Content != "" {
				fmt.Printf("… %s\n", ev.Response.Content)
			}
		case event.ToolCallStart:
			if ev.ToolCall != nil {
				fmt.Printf("→ %s %s\n", ev.ToolCall.Name, ev.ToolCall.Arguments)
			}
		case event.RunEnd:
			if ev.Response != nil {
				fmt.Printf("\n%s\n", ev.Response.Content)
			}
		case event.RunError:
			return ev.Error
		}
	}

	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := setupLogger(cfg.LogLevel)

	retriever := buildRetriever(cmd.Context(), cfg, log)

	registry := tool.NewRegistry()
	stocktools.Register(registry, market.NewClient(), retriever)

	return mcp.ServeStdio(registry,
		mcp.WithName("stock-agent-tools"),
		mcp.WithVersion("1.0.0"),
	)
}
