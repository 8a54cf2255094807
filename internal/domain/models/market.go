package models

import "time"

// Confidence grades how trustworthy an aggregated price is.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Quote is a single normalized ticker reading from one source.
// Immutable once produced; owned by the aggregation that requested it.
type Quote struct {
	Source    string    `json:"source"`
	Price     float64   `json:"price"`
	Volume24h float64   `json:"volume24h"`
	Change24h float64   `json:"change24h"`
	High24h   float64   `json:"high24h,omitempty"`
	Low24h    float64   `json:"low24h,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// AggregatedPrice is the cross-source consensus view for a symbol.
// Invariant: Min <= Median <= Max, SpreadPct = (Max-Min)/Average.
type AggregatedPrice struct {
	Symbol      string     `json:"symbol"`
	Average     float64    `json:"average"`
	Median      float64    `json:"median"`
	Min         float64    `json:"min"`
	Max         float64    `json:"max"`
	SpreadPct   float64    `json:"spreadPct"`
	Volume24h   float64    `json:"volume24h"`
	Change24h   float64    `json:"change24h"`
	SourceCount int        `json:"sourceCount"`
	Confidence  Confidence `json:"confidence"`
	Sources     []Quote    `json:"sources,omitempty"`
	// Errors holds per-source failures that were absorbed, keyed by source name.
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Notional returns price * quantity for the level.
func (l BookLevel) Notional() float64 { return l.Price * l.Quantity }

// OrderBook is a depth snapshot: bids descending, asks ascending.
type OrderBook struct {
	Symbol    string      `json:"symbol"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	FetchedAt time.Time   `json:"fetchedAt"`
}
