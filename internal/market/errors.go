package market

import "errors"

var (
	// ErrInsufficientData means zero quote sources succeeded for an aggregation.
	ErrInsufficientData = errors.New("market: insufficient data")

	// ErrNoMarketData means neither order-book nor historical data was available.
	ErrNoMarketData = errors.New("market: no market data")
)
