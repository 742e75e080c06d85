package market

import "fmt"

// NoDataError indicates the upstream returned no data for a ticker,
// usually because the symbol does not exist or is delisted.
type NoDataError struct {
	Ticker string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("market: no data found for ticker %s", e.Ticker)
}

// InvalidPeriodError indicates an unrecognized period name.
type InvalidPeriodError struct {
	Period Period
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("market: invalid period %q, valid periods: %v", e.Period, Periods())
}
