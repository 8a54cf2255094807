package models

// ZoneStrength is a step classification of a zone's weight.
type ZoneStrength string

const (
	ZoneWeak       ZoneStrength = "WEAK"
	ZoneMedium     ZoneStrength = "MEDIUM"
	ZoneStrong     ZoneStrength = "STRONG"
	ZoneVeryStrong ZoneStrength = "VERY_STRONG"
)

// ZoneSource tells which detection method produced a zone.
type ZoneSource string

const (
	ZoneFromOrderBook  ZoneSource = "ORDERBOOK"
	ZoneFromHistorical ZoneSource = "HISTORICAL"
	ZoneFromPivot      ZoneSource = "PIVOT"
	ZoneFromFibonacci  ZoneSource = "FIBONACCI"
)

// ZoneSide separates selling interest (supply) from buying interest (demand).
type ZoneSide string

const (
	ZoneSupply ZoneSide = "SUPPLY"
	ZoneDemand ZoneSide = "DEMAND"
)

// Zone is a derived price region of concentrated interest.
// Recomputed on every request; no identity across calls.
type Zone struct {
	Level      float64      `json:"level"`
	Volume     float64      `json:"volume"`
	Strength   ZoneStrength `json:"strength"`
	Confidence int          `json:"confidence"` // 0..100
	Source     ZoneSource   `json:"source"`
	Side       ZoneSide     `json:"side"`
}

// ZoneSet holds ranked supply and demand zones around the current price.
// LowConfidence is set when neither order-book nor historical data was
// available and both lists are therefore empty.
type ZoneSet struct {
	Supply        []Zone `json:"supply"`
	Demand        []Zone `json:"demand"`
	LowConfidence bool   `json:"lowConfidence,omitempty"`
}
