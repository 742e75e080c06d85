// Package stocktools adapts market data and document retrieval into agent
// tools. Handlers never fail: every error is encoded into the JSON payload
// returned to the model, so a bad ticker or an upstream outage becomes
// something the model can read and react to instead of aborting the run.
package stocktools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexandrerays/bedrock-agentcore-stock-agent/knowledge"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/market"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/tool"
)

// Tool names exposed to the model.
const (
	RealtimePriceToolName   = "get_realtime_stock_price"
	HistoricalPriceToolName = "get_historical_stock_price"
	DocumentSearchToolName  = "search_financial_documents"
)

// HistoryDays is how many trailing trading days the historical tool returns.
const HistoryDays = 20

// maxSnippetLen bounds each document snippet in search results.
const maxSnippetLen = 500

// MarketData is the subset of the market client the tools need.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (*market.Snapshot, error)
	History(ctx context.Context, ticker string, req market.HistoryRequest) (*market.Series, error)
}

// DocumentRetriever is the subset of the knowledge retriever the tools need.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]knowledge.Match, error)
}

// RealtimeArgs are the arguments for the realtime price tool.
type RealtimeArgs struct {
	Ticker string `json:"ticker" desc:"Stock ticker symbol, e.g. AAPL or PETR4.SA" required:"true"`
}

// HistoricalArgs are the arguments for the historical price tool.
type HistoricalArgs struct {
	Ticker    string `json:"ticker" desc:"Stock ticker symbol, e.g. AAPL or PETR4.SA" required:"true"`
	StartDate string `json:"start_date" desc:"Start date in YYYY-MM-DD format (optional, requires end_date)"`
	EndDate   string `json:"end_date" desc:"End date in YYYY-MM-DD format (optional, requires start_date)"`
	Period    string `json:"period" desc:"Lookback window when no dates are given" enum:"1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max" default:"3mo"`
}

// SearchArgs are the arguments for the document search tool.
type SearchArgs struct {
	Query string `json:"query" desc:"Question or topic to look up in the financial knowledge base" required:"true"`
}

// Register adds the stock tools to the registry. The retriever may be nil;
// the document search tool then reports itself unavailable to the model.
func Register(registry *tool.Registry, data MarketData, retriever DocumentRetriever) {
	tool.MustRegisterFunc(registry, RealtimePriceToolName,
		"Get the latest traded price and day change for a stock ticker.",
		RealtimePriceHandler(data))

	tool.MustRegisterFunc(registry, HistoricalPriceToolName,
		fmt.Sprintf("Get price history for a stock ticker over a date range or named period. Returns summary statistics and the last %d trading days.", HistoryDays),
		HistoricalPriceHandler(data))

	tool.MustRegisterFunc(registry, DocumentSearchToolName,
		"Search the financial knowledge base for documents relevant to a query.",
		DocumentSearchHandler(retriever))
}

// RealtimePriceHandler returns the typed handler for the realtime price tool.
func RealtimePriceHandler(data MarketData) tool.TypedHandler[RealtimeArgs] {
	return func(ctx context.Context, args RealtimeArgs) (string, error) {
		ticker := strings.ToUpper(strings.TrimSpace(args.Ticker))
		if ticker == "" {
			return errorPayload("Ticker is required", ticker), nil
		}

		snap, err := data.Quote(ctx, ticker)
		if err != nil {
			return marketErrorPayload(err, ticker), nil
		}

		payload := map[string]any{
			"ticker":         snap.Ticker,
			"current_price":  snap.Price,
			"currency":       snap.Currency,
			"exchange":       snap.Exchange,
			"market_state":   snap.MarketState,
			"previous_close": snap.PreviousClose,
			"change":         round2(snap.Change),
			"change_percent": round2(snap.ChangePercent),
			"timestamp":      snap.Timestamp.Format("2006-01-02T15:04:05Z"),
		}
		if snap.MarketCap > 0 {
			payload["market_cap"] = snap.MarketCap
		}
		if snap.FiftyTwoWeekHigh > 0 {
			payload["52_week_high"] = snap.FiftyTwoWeekHigh
		}
		if snap.FiftyTwoWeekLow > 0 {
			payload["52_week_low"] = snap.FiftyTwoWeekLow
		}
		return mustJSON(payload), nil
	}
}

// HistoricalPriceHandler returns the typed handler for the historical price tool.
func HistoricalPriceHandler(data MarketData) tool.TypedHandler[HistoricalArgs] {
	return func(ctx context.Context, args HistoricalArgs) (string, error) {
		ticker := strings.ToUpper(strings.TrimSpace(args.Ticker))
		if ticker == "" {
			return errorPayload("Ticker is required", ticker), nil
		}

		hreq := market.HistoryRequest{Period: market.Period(args.Period)}
		if args.StartDate != "" || args.EndDate != "" {
			start, err := time.Parse("2006-01-02", args.StartDate)
			if err != nil {
				return errorPayload(fmt.Sprintf("Invalid start_date %q, expected YYYY-MM-DD", args.StartDate), ticker), nil
			}
			end, err := time.Parse("2006-01-02", args.EndDate)
			if err != nil {
				return errorPayload(fmt.Sprintf("Invalid end_date %q, expected YYYY-MM-DD", args.EndDate), ticker), nil
			}
			hreq = market.HistoryRequest{Start: start, End: end}
		}

		series, err := data.History(ctx, ticker, hreq)
		if err != nil {
			return marketErrorPayload(err, ticker), nil
		}

		bars := series.Last(HistoryDays)
		rows := make([]map[string]any, len(bars))
		for i, bar := range bars {
			rows[i] = map[string]any{
				"date":   bar.Timestamp.Format("2006-01-02"),
				"open":   round2(bar.Open),
				"high":   round2(bar.High),
				"low":    round2(bar.Low),
				"close":  round2(bar.Close),
				"volume": bar.Volume,
			}
		}

		stats := series.Stats()
		return mustJSON(map[string]any{
			"ticker":               series.Ticker,
			"period":               series.Span(),
			"currency":             series.Currency,
			"data_points":          stats.DataPoints,
			"min_price":            round2(stats.MinPrice),
			"max_price":            round2(stats.MaxPrice),
			"average_price":        round2(stats.AveragePrice),
			"latest_price":         round2(stats.LatestPrice),
			"price_change":         round2(stats.PriceChange),
			"price_change_percent": round2(stats.PriceChangePercent),
			"historical_data":      rows,
		}), nil
	}
}

// DocumentSearchHandler returns the typed handler for the document search tool.
// Results are plain text: one "[source]\ncontent" block per match.
func DocumentSearchHandler(retriever DocumentRetriever) tool.TypedHandler[SearchArgs] {
	return func(ctx context.Context, args SearchArgs) (string, error) {
		query := strings.TrimSpace(args.Query)
		if query == "" {
			return "Query is required", nil
		}
		if retriever == nil {
			return "Knowledge retriever not available", nil
		}

		matches, err := retriever.Retrieve(ctx, query)
		if err != nil {
			if errors.Is(err, knowledge.ErrUnavailable) {
				return "Knowledge retriever not available", nil
			}
			return fmt.Sprintf("Document search failed: %v", err), nil
		}
		if len(matches) == 0 {
			return fmt.Sprintf("No relevant documents found for query: %s", query), nil
		}

		blocks := make([]string, len(matches))
		for i, m := range matches {
			blocks[i] = fmt.Sprintf("[%s]\n%s", m.Document.Source, snippet(m.Document.Content))
		}
		return strings.Join(blocks, "\n\n"), nil
	}
}

// snippet bounds document content without splitting a UTF-8 sequence.
func snippet(content string) string {
	if len(content) <= maxSnippetLen {
		return content
	}
	cut := maxSnippetLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

func errorPayload(msg, ticker string) string {
	return mustJSON(map[string]any{
		"error":  msg,
		"ticker": ticker,
	})
}

// marketErrorPayload folds a market error into the tool payload.
func marketErrorPayload(err error, ticker string) string {
	var noData *market.NoDataError
	var invalidPeriod *market.InvalidPeriodError
	switch {
	case errors.As(err, &noData):
		return errorPayload(fmt.Sprintf("No data found for ticker %s", ticker), ticker)
	case errors.As(err, &invalidPeriod):
		return errorPayload(invalidPeriod.Error(), ticker)
	default:
		return errorPayload(fmt.Sprintf("Failed to fetch data for %s: %v", ticker, err), ticker)
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
