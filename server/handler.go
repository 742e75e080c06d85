package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/event"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/stream"
)

// InvokeRequest is the body accepted by the invocation endpoints. The
// query lives under input as either "prompt" or "query".
type InvokeRequest struct {
	Input  map[string]any `json:"input"`
	UserID string         `json:"user_id,omitempty"`
}

// Query extracts the prompt from the request input.
func (r *InvokeRequest) Query() string {
	for _, key := range []string{"prompt", "query"} {
		if v, ok := r.Input[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r)
}

func (s *Server) handleInvokeDev(w http.ResponseWriter, r *http.Request) {
	if !s.devEndpoints {
		http.Error(w, "Development endpoint disabled in production", http.StatusForbidden)
		return
	}
	s.invoke(w, r)
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	query := req.Query()
	if query == "" {
		http.Error(w, "No prompt or query provided in request input", http.StatusBadRequest)
		return
	}

	if s.agent == nil {
		http.Error(w, "Agent not initialized", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	log := s.log.With(
		"request_id", uuid.NewString(),
		"session_id", sessionID,
		"path", r.URL.Path,
	)
	log.Info("request started", "query_len", len(query))

	messages := s.conversation(r.Context(), sessionID, query, log)

	w.Header().Set("Content-Type", stream.ContentType)
	w.WriteHeader(http.StatusOK)
	nw := stream.NewWriter(w)

	var final *ai.Response
	events := s.agent.RunStream(r.Context(), messages, s.runOpts...)
	for ev := range events {
		if ev.Type == event.RunEnd {
			final = ev.Response
		}
		for _, wire := range stream.Map(ev) {
			if err := nw.Write(wire); err != nil {
				log.Error("failed to write event", "error", err)
				return
			}
		}
	}

	if sessionID != "" && final != nil {
		if history, err := s.sessions.Get(r.Context(), sessionID); err != nil {
			log.Warn("failed to load session", "error", err)
		} else {
			history.Append(ai.NewUserMessage(query))
			history.Append(ai.Message{
				ID:      ai.GenerateMessageID(),
				Role:    ai.RoleAssistant,
				Content: final.Content,
			})
			if err := s.sessions.Sync(r.Context(), sessionID); err != nil {
				log.Warn("failed to persist session", "error", err)
			}
		}
	}

	log.Info("request finished", "duration", time.Since(start), "completed", final != nil)
}

// conversation builds the message list for a run, replaying session
// history when a session id is present. An unreadable session is logged
// and the run proceeds without history.
func (s *Server) conversation(ctx context.Context, sessionID, query string, log *slog.Logger) []ai.Message {
	var messages []ai.Message
	if s.systemPrompt != "" {
		messages = append(messages, ai.NewSystemMessage(s.systemPrompt))
	}
	if sessionID != "" {
		if history, err := s.sessions.Get(ctx, sessionID); err != nil {
			log.Warn("failed to load session", "error", err)
		} else {
			messages = append(messages, history.Messages()...)
		}
	}
	return append(messages, ai.NewUserMessage(query))
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"agent_ready":          s.agent != nil,
		"knowledge_base_ready": s.retriever != nil,
	})
}

func (s *Server) handleKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.retriever == nil {
		http.Error(w, "Knowledge base not initialized", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, s.retriever.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
