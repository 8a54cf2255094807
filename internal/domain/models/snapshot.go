package models

import "time"

// SignalDirection is the composed directional bias.
type SignalDirection string

const (
	SignalBuy     SignalDirection = "BUY"
	SignalSell    SignalDirection = "SELL"
	SignalNeutral SignalDirection = "NEUTRAL"
)

// Signal is the output of the heuristic composer: a bounded score plus the
// votes that produced it.
type Signal struct {
	Direction  SignalDirection `json:"direction"`
	Confidence int             `json:"confidence"` // 0..100
	Reasoning  []string        `json:"reasoning"`
}

// MarketSnapshot is the full per-symbol analysis payload: consensus price,
// indicator readings, zones and the composed signal. It is what /api/analysis
// returns and what gets published downstream.
type MarketSnapshot struct {
	Symbol     string           `json:"symbol"`
	Price      *AggregatedPrice `json:"price"`
	Indicators *IndicatorSet    `json:"indicators"`
	Zones      *ZoneSet         `json:"zones"`
	Signal     *Signal          `json:"signal"`
	// Errors holds non-fatal sub-computation failures keyed by section.
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Cached    bool              `json:"cached,omitempty"`
}
