package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	ai "github.com/alexandrerays/bedrock-agentcore-stock-agent"
	"github.com/alexandrerays/bedrock-agentcore-stock-agent/retry"
)

// DefaultBaseURL is the public chart API endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const defaultUserAgent = "stockagent/1.0"

// Client fetches market data from a chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the chart API endpoint. Useful for tests and proxies.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetry sets the retry configuration for transient upstream failures.
func WithRetry(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryCfg = cfg
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a market data client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryCfg:   retry.DefaultConfig(),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote returns the latest known price snapshot for a ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (*Snapshot, error) {
	if ticker == "" {
		return nil, ai.NewUserInputError("market: ticker is required", 0, nil)
	}

	query := url.Values{}
	query.Set("range", "1d")
	query.Set("interval", "1m")
	result, err := c.fetchChart(ctx, ticker, query)
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	snap := &Snapshot{
		Ticker:           meta.Symbol,
		Price:            meta.RegularMarketPrice,
		Currency:         meta.Currency,
		Exchange:         meta.ExchangeName,
		MarketState:      meta.MarketState,
		PreviousClose:    meta.ChartPreviousClose,
		MarketCap:        meta.MarketCap,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		Timestamp:        time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if snap.PreviousClose != 0 {
		snap.Change = snap.Price - snap.PreviousClose
		snap.ChangePercent = snap.Change / snap.PreviousClose * 100
	}
	return snap, nil
}

// History returns price bars for a ticker over the requested window.
// An empty request defaults to DefaultPeriod.
func (c *Client) History(ctx context.Context, ticker string, hreq HistoryRequest) (*Series, error) {
	if ticker == "" {
		return nil, ai.NewUserInputError("market: ticker is required", 0, nil)
	}

	query := url.Values{}
	period := hreq.Period
	switch {
	case !hreq.Start.IsZero() || !hreq.End.IsZero():
		if hreq.Start.IsZero() || hreq.End.IsZero() {
			return nil, ai.NewUserInputError("market: start and end dates must be set together", 0, nil)
		}
		if !hreq.Start.Before(hreq.End) {
			return nil, ai.NewUserInputError("market: start date must be before end date", 0, nil)
		}
		query.Set("period1", strconv.FormatInt(hreq.Start.Unix(), 10))
		query.Set("period2", strconv.FormatInt(hreq.End.Unix(), 10))
		query.Set("interval", "1d")
		period = ""
	default:
		if period == "" {
			period = DefaultPeriod
		}
		if !period.Valid() {
			return nil, &InvalidPeriodError{Period: period}
		}
		query.Set("range", string(period))
		query.Set("interval", period.interval())
	}

	result, err := c.fetchChart(ctx, ticker, query)
	if err != nil {
		return nil, err
	}

	series := &Series{
		Ticker:   result.Meta.Symbol,
		Period:   period,
		Start:    hreq.Start,
		End:      hreq.End,
		Currency: result.Meta.Currency,
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, &NoDataError{Ticker: ticker}
	}
	quote := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		// Null closes mark halted or missing candles
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		series.Bars = append(series.Bars, bar)
	}

	if len(series.Bars) == 0 {
		return nil, &NoDataError{Ticker: ticker}
	}
	return series, nil
}

// chartResponse mirrors the chart API envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		MarketState        string  `json:"marketState"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
		MarketCap          int64   `json:"marketCap"`
		FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (c *Client) fetchChart(ctx context.Context, ticker string, query url.Values) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(ticker))

	return retry.Do(ctx, c.retryCfg, func() (*chartResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, ai.NewPermanentError("market: building request", 0, err)
		}
		req.URL.RawQuery = query.Encode()
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, ai.NewTransientError("market: request failed", 0, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, ai.NewTransientError("market: reading response", 0, err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, c.statusError(resp, ticker)
		}

		var parsed chartResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, ai.NewPermanentError("market: decoding response", resp.StatusCode, err)
		}

		if parsed.Chart.Error != nil {
			return nil, &NoDataError{Ticker: ticker}
		}
		if len(parsed.Chart.Result) == 0 {
			return nil, &NoDataError{Ticker: ticker}
		}

		return &parsed.Chart.Result[0], nil
	})
}

// statusError categorizes a non-200 response so the retry layer knows
// whether another attempt can help.
func (c *Client) statusError(resp *http.Response, ticker string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NoDataError{Ticker: ticker}

	case resp.StatusCode == http.StatusTooManyRequests:
		msg := "market: rate limited"
		if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > 0 {
			return ai.NewTransientErrorWithRetry(msg, resp.StatusCode, ra, nil)
		}
		return ai.NewTransientError(msg, resp.StatusCode, nil)

	case resp.StatusCode >= 500:
		return ai.NewTransientError(fmt.Sprintf("market: upstream error (%d)", resp.StatusCode), resp.StatusCode, nil)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ai.NewPermanentError(fmt.Sprintf("market: access denied (%d)", resp.StatusCode), resp.StatusCode, nil)

	default:
		return ai.NewPermanentError(fmt.Sprintf("market: unexpected status %d", resp.StatusCode), resp.StatusCode, nil)
	}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
