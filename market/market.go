// Package market provides access to stock market data through a
// Yahoo-Finance-compatible chart API.
//
// The package exposes two operations: [Client.Quote] for the latest traded
// price of a ticker and [Client.History] for daily price bars over a named
// period. Transient upstream failures (rate limits, server errors) are
// retried with exponential backoff.
package market

import (
	"fmt"
	"time"
)

// Period names a historical lookback window. The values mirror the ranges
// accepted by the chart API.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

// DefaultPeriod is used when no period is given.
const DefaultPeriod = Period3Mo

// Periods lists every valid period in ascending window size.
func Periods() []Period {
	return []Period{
		Period1D, Period5D, Period1Mo, Period3Mo, Period6Mo,
		Period1Y, Period2Y, Period5Y, Period10Y, PeriodYTD, PeriodMax,
	}
}

// Valid reports whether p names a known period.
func (p Period) Valid() bool {
	for _, known := range Periods() {
		if p == known {
			return true
		}
	}
	return false
}

// interval picks the bar interval matching the period's window.
func (p Period) interval() string {
	switch p {
	case Period1D:
		return "5m"
	case Period5D:
		return "30m"
	default:
		return "1d"
	}
}

// Snapshot is the latest known state of a ticker.
type Snapshot struct {
	Ticker           string    `json:"ticker"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	Exchange         string    `json:"exchange"`
	MarketState      string    `json:"market_state"`
	PreviousClose    float64   `json:"previous_close"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"change_percent"`
	MarketCap        int64     `json:"market_cap,omitempty"`
	FiftyTwoWeekHigh float64   `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  float64   `json:"fifty_two_week_low,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// HistoryRequest selects the window for [Client.History]. Explicit Start
// and End dates take precedence over Period and must be set together.
// When neither is set, Period applies, defaulting to DefaultPeriod.
type HistoryRequest struct {
	Start  time.Time
	End    time.Time
	Period Period
}

// Bar is one OHLCV candle.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Series is the historical price data for a ticker over a window.
type Series struct {
	Ticker   string    `json:"ticker"`
	Period   Period    `json:"period,omitempty"`
	Start    time.Time `json:"-"`
	End      time.Time `json:"-"`
	Currency string    `json:"currency"`
	Bars     []Bar     `json:"bars"`
}

// Span describes the window the series covers, either the named period
// or the explicit date range.
func (s *Series) Span() string {
	if !s.Start.IsZero() && !s.End.IsZero() {
		return fmt.Sprintf("%s to %s", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	}
	return string(s.Period)
}

// Stats summarizes closing prices over a series.
type Stats struct {
	DataPoints         int     `json:"data_points"`
	MinPrice           float64 `json:"min_price"`
	MaxPrice           float64 `json:"max_price"`
	AveragePrice       float64 `json:"average_price"`
	LatestPrice        float64 `json:"latest_price"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
}

// Stats computes summary statistics over the series' closing prices.
func (s *Series) Stats() Stats {
	if len(s.Bars) == 0 {
		return Stats{}
	}

	first := s.Bars[0].Close
	stats := Stats{
		DataPoints: len(s.Bars),
		MinPrice:   first,
		MaxPrice:   first,
	}
	var sum float64
	for _, bar := range s.Bars {
		if bar.Close < stats.MinPrice {
			stats.MinPrice = bar.Close
		}
		if bar.Close > stats.MaxPrice {
			stats.MaxPrice = bar.Close
		}
		sum += bar.Close
	}
	stats.AveragePrice = sum / float64(len(s.Bars))
	stats.LatestPrice = s.Bars[len(s.Bars)-1].Close
	stats.PriceChange = stats.LatestPrice - first
	if first != 0 {
		stats.PriceChangePercent = stats.PriceChange / first * 100
	}
	return stats
}

// Last returns the trailing n bars. If n exceeds the series length, all
// bars are returned.
func (s *Series) Last(n int) []Bar {
	if n <= 0 {
		return nil
	}
	if n >= len(s.Bars) {
		return s.Bars
	}
	return s.Bars[len(s.Bars)-n:]
}

func (s *Series) String() string {
	return fmt.Sprintf("%s %s (%d bars)", s.Ticker, s.Period, len(s.Bars))
}
