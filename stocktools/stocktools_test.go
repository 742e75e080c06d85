package stocktools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/knowledge"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/market"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	snapshot   *market.Snapshot
	series     *market.Series
	quoteErr   error
	historyErr error
	lastReq    market.HistoryRequest
}

func (f *fakeMarket) Quote(ctx context.Context, ticker string) (*market.Snapshot, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.snapshot, nil
}

func (f *fakeMarket) History(ctx context.Context, ticker string, req market.HistoryRequest) (*market.Series, error) {
	f.lastReq = req
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if req.Period != "" && !req.Period.Valid() {
		return nil, &market.InvalidPeriodError{Period: req.Period}
	}
	return f.series, nil
}

type fakeRetriever struct {
	matches []knowledge.Match
	err     error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) ([]knowledge.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func aaplSnapshot() *market.Snapshot {
	return &market.Snapshot{
		Ticker:           "AAPL",
		Price:            195.3,
		Currency:         "USD",
		Exchange:         "NMS",
		MarketState:      "REGULAR",
		PreviousClose:    190.0,
		Change:           5.3,
		ChangePercent:    2.789,
		MarketCap:        2990000000000,
		FiftyTwoWeekHigh: 237.2,
		FiftyTwoWeekLow:  164.1,
		Timestamp:        time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC),
	}
}

func TestRealtimePriceHandler(t *testing.T) {
	t.Run("returns quote payload", func(t *testing.T) {
		handler := RealtimePriceHandler(&fakeMarket{snapshot: aaplSnapshot()})

		out, err := handler(context.Background(), RealtimeArgs{Ticker: "aapl"})

		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "AAPL", payload["ticker"])
		assert.Equal(t, 195.3, payload["current_price"])
		assert.Equal(t, "USD", payload["currency"])
		assert.Equal(t, 2.79, payload["change_percent"])
		assert.Equal(t, 2990000000000.0, payload["market_cap"])
		assert.Equal(t, 237.2, payload["52_week_high"])
		assert.Equal(t, 164.1, payload["52_week_low"])
	})

	t.Run("unknown ticker returns error payload, not an error", func(t *testing.T) {
		handler := RealtimePriceHandler(&fakeMarket{quoteErr: &market.NoDataError{Ticker: "NOPE"}})

		out, err := handler(context.Background(), RealtimeArgs{Ticker: "NOPE"})

		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "No data found for ticker NOPE", payload["error"])
		assert.Equal(t, "NOPE", payload["ticker"])
	})

	t.Run("upstream failure returns error payload", func(t *testing.T) {
		handler := RealtimePriceHandler(&fakeMarket{
			quoteErr: ai.NewTransientError("market: upstream error (502)", 502, nil),
		})

		out, err := handler(context.Background(), RealtimeArgs{Ticker: "AAPL"})

		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Contains(t, payload["error"], "Failed to fetch data for AAPL")
	})

	t.Run("blank ticker returns error payload", func(t *testing.T) {
		handler := RealtimePriceHandler(&fakeMarket{snapshot: aaplSnapshot()})

		out, err := handler(context.Background(), RealtimeArgs{Ticker: "   "})

		require.NoError(t, err)
		assert.Contains(t, out, "Ticker is required")
	})

	t.Run("is idempotent for the same input", func(t *testing.T) {
		handler := RealtimePriceHandler(&fakeMarket{snapshot: aaplSnapshot()})

		first, err := handler(context.Background(), RealtimeArgs{Ticker: "AAPL"})
		require.NoError(t, err)
		second, err := handler(context.Background(), RealtimeArgs{Ticker: "AAPL"})
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestHistoricalPriceHandler(t *testing.T) {
	makeSeries := func(days int) *market.Series {
		s := &market.Series{Ticker: "AAPL", Period: market.Period3Mo, Currency: "USD"}
		base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < days; i++ {
			s.Bars = append(s.Bars, market.Bar{
				Timestamp: base.AddDate(0, 0, i),
				Open:      100 + float64(i),
				High:      101 + float64(i),
				Low:       99 + float64(i),
				Close:     100.5 + float64(i),
				Volume:    1000 + int64(i),
			})
		}
		return s
	}

	t.Run("returns at most the trailing HistoryDays rows", func(t *testing.T) {
		handler := HistoricalPriceHandler(&fakeMarket{series: makeSeries(60)})

		out, err := handler(context.Background(), HistoricalArgs{Ticker: "AAPL", Period: "3mo"})

		require.NoError(t, err)
		var payload struct {
			Ticker     string           `json:"ticker"`
			Period     string           `json:"period"`
			DataPoints int              `json:"data_points"`
			MinPrice   float64          `json:"min_price"`
			MaxPrice   float64          `json:"max_price"`
			Latest     float64          `json:"latest_price"`
			Data       []map[string]any `json:"historical_data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "AAPL", payload.Ticker)
		assert.Equal(t, "3mo", payload.Period)
		// Stats cover the whole series, not just the trailing rows
		assert.Equal(t, 60, payload.DataPoints)
		assert.Equal(t, 100.5, payload.MinPrice)
		assert.Equal(t, 159.5, payload.MaxPrice)
		assert.Equal(t, 159.5, payload.Latest)
		require.Len(t, payload.Data, HistoryDays)
		// Last row is the most recent bar
		assert.Equal(t, "2026-07-30", payload.Data[HistoryDays-1]["date"])
		assert.Equal(t, 159.5, payload.Data[HistoryDays-1]["close"])
	})

	t.Run("short series is returned whole", func(t *testing.T) {
		handler := HistoricalPriceHandler(&fakeMarket{series: makeSeries(5)})

		out, err := handler(context.Background(), HistoricalArgs{Ticker: "AAPL"})

		require.NoError(t, err)
		var payload struct {
			Data []map[string]any `json:"historical_data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Len(t, payload.Data, 5)
	})

	t.Run("explicit dates override the period", func(t *testing.T) {
		fake := &fakeMarket{series: makeSeries(5)}
		handler := HistoricalPriceHandler(fake)

		_, err := handler(context.Background(), HistoricalArgs{
			Ticker:    "AAPL",
			StartDate: "2026-05-01",
			EndDate:   "2026-08-01",
			Period:    "1y",
		})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), fake.lastReq.Start)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), fake.lastReq.End)
		assert.Empty(t, fake.lastReq.Period)
	})

	t.Run("malformed date returns error payload", func(t *testing.T) {
		handler := HistoricalPriceHandler(&fakeMarket{series: makeSeries(5)})

		out, err := handler(context.Background(), HistoricalArgs{
			Ticker:    "AAPL",
			StartDate: "05/01/2026",
			EndDate:   "2026-08-01",
		})

		require.NoError(t, err)
		assert.Contains(t, out, "Invalid start_date")
	})

	t.Run("invalid period returns error payload", func(t *testing.T) {
		handler := HistoricalPriceHandler(&fakeMarket{series: makeSeries(5)})

		out, err := handler(context.Background(), HistoricalArgs{Ticker: "AAPL", Period: "7w"})

		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Contains(t, payload["error"], "invalid period")
	})

	t.Run("no data returns error payload", func(t *testing.T) {
		handler := HistoricalPriceHandler(&fakeMarket{historyErr: &market.NoDataError{Ticker: "NOPE"}})

		out, err := handler(context.Background(), HistoricalArgs{Ticker: "NOPE"})

		require.NoError(t, err)
		assert.Contains(t, out, "No data found for ticker NOPE")
	})
}

func TestDocumentSearchHandler(t *testing.T) {
	t.Run("formats matches as source blocks", func(t *testing.T) {
		handler := DocumentSearchHandler(&fakeRetriever{matches: []knowledge.Match{
			{Document: knowledge.Document{Source: "dividends.md", Content: "Dividend policy basics."}, Score: 0.9},
			{Document: knowledge.Document{Source: "earnings.md", Content: "Earnings call notes."}, Score: 0.7},
		}})

		out, err := handler(context.Background(), SearchArgs{Query: "dividends"})

		require.NoError(t, err)
		blocks := strings.Split(out, "\n\n")
		require.Len(t, blocks, 2)
		assert.Equal(t, "[dividends.md]\nDividend policy basics.", blocks[0])
		assert.Equal(t, "[earnings.md]\nEarnings call notes.", blocks[1])
	})

	t.Run("truncates long snippets", func(t *testing.T) {
		handler := DocumentSearchHandler(&fakeRetriever{matches: []knowledge.Match{
			{Document: knowledge.Document{Source: "big.md", Content: strings.Repeat("a", 800)}},
		}})

		out, err := handler(context.Background(), SearchArgs{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, len("[big.md]\n")+maxSnippetLen, len(out))
	})

	t.Run("snippet cut keeps UTF-8 intact", func(t *testing.T) {
		handler := DocumentSearchHandler(&fakeRetriever{matches: []knowledge.Match{
			{Document: knowledge.Document{Source: "jp.md", Content: strings.Repeat("日", 300)}},
		}})

		out, err := handler(context.Background(), SearchArgs{Query: "anything"})

		require.NoError(t, err)
		assert.True(t, utf8.ValidString(out))
		// 500 is not a multiple of three, so the cut backs up to a boundary.
		assert.Equal(t, len("[jp.md]\n")+maxSnippetLen-2, len(out))
	})

	t.Run("no matches", func(t *testing.T) {
		handler := DocumentSearchHandler(&fakeRetriever{})

		out, err := handler(context.Background(), SearchArgs{Query: "obscure topic"})

		require.NoError(t, err)
		assert.Equal(t, "No relevant documents found for query: obscure topic", out)
	})

	t.Run("nil retriever reports unavailable", func(t *testing.T) {
		handler := DocumentSearchHandler(nil)

		out, err := handler(context.Background(), SearchArgs{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, "Knowledge retriever not available", out)
	})

	t.Run("unavailable retriever reports unavailable", func(t *testing.T) {
		handler := DocumentSearchHandler(&fakeRetriever{err: knowledge.ErrUnavailable})

		out, err := handler(context.Background(), SearchArgs{Query: "anything"})

		require.NoError(t, err)
		assert.Equal(t, "Knowledge retriever not available", out)
	})
}

func TestRegister(t *testing.T) {
	registry := tool.NewRegistry()
	Register(registry, &fakeMarket{snapshot: aaplSnapshot()}, nil)

	assert.Equal(t, []string{
		RealtimePriceToolName,
		HistoricalPriceToolName,
		DocumentSearchToolName,
	}, registry.Names())

	// Schemas carry the required ticker parameter
	def, ok := registry.GetTool(RealtimePriceToolName)
	require.True(t, ok)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(def.Parameters, &schema))
	assert.Equal(t, []any{"ticker"}, schema["required"])
}
