// Package server exposes the stock agent over HTTP in the shape expected
// by a Bedrock AgentCore runtime: an unauthenticated /invocations endpoint
// streaming NDJSON wire events, a /ping health check, and a knowledge-base
// stats endpoint.
package server

import (
	"log/slog"
	"net/http"

	"github.com/alexandrerays/bedrock-agentcore-stock-agent/agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/knowledge"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/store"
)

// SessionHeader carries the AgentCore runtime session id. Requests sharing
// a session id share conversation history.
const SessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// Server handles agent invocations over HTTP.
type Server struct {
	agent        *agent.Agent
	retriever    *knowledge.Retriever
	sessions     *store.SessionStore
	runOpts      []agent.Option
	systemPrompt string
	devEndpoints bool
	log          *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRetriever attaches the knowledge retriever backing /knowledge-base.
func WithRetriever(r *knowledge.Retriever) Option {
	return func(s *Server) {
		s.retriever = r
	}
}

// WithRunOptions sets the agent options applied to every invocation.
func WithRunOptions(opts ...agent.Option) Option {
	return func(s *Server) {
		s.runOpts = opts
	}
}

// WithSystemPrompt prepends a system message to every conversation.
func WithSystemPrompt(prompt string) Option {
	return func(s *Server) {
		s.systemPrompt = prompt
	}
}

// WithDevEndpoints enables the unauthenticated /invoke-dev endpoint.
func WithDevEndpoints(enabled bool) Option {
	return func(s *Server) {
		s.devEndpoints = enabled
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithSessionAdapter backs session histories with the given persistence
// adapter, so conversations survive as long as the adapter's data does.
func WithSessionAdapter(adapter store.Adapter) Option {
	return func(s *Server) {
		s.sessions = store.NewSessionStore(adapter)
	}
}

// New creates a server around the given agent.
func New(a *agent.Agent, opts ...Option) *Server {
	s := &Server{
		agent:    a,
		sessions: store.NewSessionStore(nil),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/invocations", s.handleInvocations)
	mux.HandleFunc("/invoke-dev", s.handleInvokeDev)
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/knowledge-base", s.handleKnowledgeBase)
	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
