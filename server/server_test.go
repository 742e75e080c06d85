package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/store"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mu        sync.Mutex
	responses []*ai.Response
	err       error
	calls     int
	seen      [][]ai.Message
}

func (m *mockProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, messages)
	if m.err != nil {
		return nil, m.err
	}
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return m.responses[idx], nil
}

type quoteArgs struct {
	Ticker string `json:"ticker" desc:"Stock ticker symbol" required:"true"`
}

func testServer(t *testing.T, provider ai.ChatProvider, opts ...Option) *Server {
	t.Helper()
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "get_quote", "Get a stock quote", func(ctx context.Context, args quoteArgs) (string, error) {
		return `{"ticker":"AMZN","current_price":185.5}`, nil
	})
	return New(agent.New(provider, registry), opts...)
}

func finalResponse(content string) *ai.Response {
	return &ai.Response{Content: content, FinishReason: "stop"}
}

func toolResponse(content string) *ai.Response {
	return &ai.Response{
		Content:      content,
		FinishReason: "tool_calls",
		ToolCalls: []ai.ToolCall{
			{ID: "call_1", Name: "get_quote", Arguments: `{"ticker":"AMZN"}`},
		},
	}
}

func postInvoke(t *testing.T, handler http.Handler, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeLines(t *testing.T, body string) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func lineTypes(lines []map[string]any) []string {
	types := make([]string, len(lines))
	for i, l := range lines {
		types[i] = l["type"].(string)
	}
	return types
}

func TestInvocations(t *testing.T) {
	t.Run("streams a tool round and the final answer", func(t *testing.T) {
		provider := &mockProvider{responses: []*ai.Response{
			toolResponse("Checking the current price."),
			finalResponse("AMZN trades at $185.50."),
		}}
		srv := testServer(t, provider)

		rec := postInvoke(t, srv.Handler(), "/invocations", `{"input":{"prompt":"What is the AMZN price?"}}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

		lines := decodeLines(t, rec.Body.String())
		assert.Equal(t, []string{"agent_reasoning", "tool_call", "tool_result", "agent_reasoning", "final_response"}, lineTypes(lines))
		assert.Equal(t, "get_quote", lines[1]["tool"])
		assert.Contains(t, lines[2]["content"], "185.5")
		assert.Equal(t, "AMZN trades at $185.50.", lines[3]["content"])
		assert.Equal(t, "AMZN trades at $185.50.", lines[4]["content"])
	})

	t.Run("accepts query as an alias for prompt", func(t *testing.T) {
		provider := &mockProvider{responses: []*ai.Response{finalResponse("Hello.")}}
		srv := testServer(t, provider)

		rec := postInvoke(t, srv.Handler(), "/invocations", `{"input":{"query":"hi"}}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		lines := decodeLines(t, rec.Body.String())
		assert.Equal(t, []string{"agent_reasoning", "final_response"}, lineTypes(lines))
	})

	t.Run("missing prompt is a bad request", func(t *testing.T) {
		srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

		rec := postInvoke(t, srv.Handler(), "/invocations", `{"input":{}}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No prompt or query provided")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

		rec := postInvoke(t, srv.Handler(), "/invocations", `{not json`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure streams an error line", func(t *testing.T) {
		provider := &mockProvider{err: ai.NewPermanentError("invalid request", 400, nil)}
		srv := testServer(t, provider)

		rec := postInvoke(t, srv.Handler(), "/invocations", `{"input":{"prompt":"hi"}}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		lines := decodeLines(t, rec.Body.String())
		require.NotEmpty(t, lines)
		assert.Equal(t, "error", lines[len(lines)-1]["type"])
	})

	t.Run("session header replays history on the next turn", func(t *testing.T) {
		provider := &mockProvider{responses: []*ai.Response{finalResponse("First answer.")}}
		srv := testServer(t, provider)
		header := map[string]string{SessionHeader: "session-1"}

		postInvoke(t, srv.Handler(), "/invocations", `{"input":{"prompt":"first"}}`, header)
		postInvoke(t, srv.Handler(), "/invocations", `{"input":{"prompt":"second"}}`, header)

		require.Len(t, provider.seen, 2)
		assert.Len(t, provider.seen[0], 1)
		// Second call carries user, assistant, then the new user turn
		require.Len(t, provider.seen[1], 3)
		assert.Equal(t, ai.RoleUser, provider.seen[1][0].Role)
		assert.Equal(t, "first", provider.seen[1][0].Content)
		assert.Equal(t, ai.RoleAssistant, provider.seen[1][1].Role)
		assert.Equal(t, "First answer.", provider.seen[1][1].Content)
		assert.Equal(t, "second", provider.seen[1][2].Content)
	})

	t.Run("sessions persist through the adapter across servers", func(t *testing.T) {
		adapter := store.NewMemoryAdapter()
		provider := &mockProvider{responses: []*ai.Response{finalResponse("First answer.")}}
		header := map[string]string{SessionHeader: "session-1"}

		first := testServer(t, provider, WithSessionAdapter(adapter))
		postInvoke(t, first.Handler(), "/invocations", `{"input":{"prompt":"first"}}`, header)

		// A fresh server over the same adapter picks the session back up.
		second := testServer(t, provider, WithSessionAdapter(adapter))
		postInvoke(t, second.Handler(), "/invocations", `{"input":{"prompt":"second"}}`, header)

		require.Len(t, provider.seen, 2)
		require.Len(t, provider.seen[1], 3)
		assert.Equal(t, "first", provider.seen[1][0].Content)
		assert.Equal(t, ai.RoleAssistant, provider.seen[1][1].Role)
		assert.Equal(t, "second", provider.seen[1][2].Content)
	})

	t.Run("system prompt leads the conversation", func(t *testing.T) {
		provider := &mockProvider{responses: []*ai.Response{finalResponse("ok")}}
		srv := testServer(t, provider, WithSystemPrompt("You are a stock market assistant."))

		postInvoke(t, srv.Handler(), "/invocations", `{"input":{"prompt":"hi"}}`, nil)

		require.Len(t, provider.seen, 1)
		require.Len(t, provider.seen[0], 2)
		assert.Equal(t, ai.RoleSystem, provider.seen[0][0].Role)
	})

	t.Run("rejects non-POST", func(t *testing.T) {
		srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

		req := httptest.NewRequest(http.MethodGet, "/invocations", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestInvokeDev(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

		rec := postInvoke(t, srv.Handler(), "/invoke-dev", `{"input":{"prompt":"hi"}}`, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Development endpoint disabled")
	})

	t.Run("streams when enabled", func(t *testing.T) {
		provider := &mockProvider{responses: []*ai.Response{finalResponse("dev answer")}}
		srv := testServer(t, provider, WithDevEndpoints(true))

		rec := postInvoke(t, srv.Handler(), "/invoke-dev", `{"input":{"prompt":"hi"}}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		lines := decodeLines(t, rec.Body.String())
		assert.Equal(t, []string{"agent_reasoning", "final_response"}, lineTypes(lines))
	})
}

func TestPing(t *testing.T) {
	srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["agent_ready"])
	assert.Equal(t, false, body["knowledge_base_ready"])
}

func TestKnowledgeBase(t *testing.T) {
	t.Run("unavailable without a retriever", func(t *testing.T) {
		srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

		req := httptest.NewRequest(http.MethodGet, "/knowledge-base", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	srv := testServer(t, &mockProvider{responses: []*ai.Response{finalResponse("x")}})

	req := httptest.NewRequest(http.MethodOptions, "/invocations", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
