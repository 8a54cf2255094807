package models

// Trend labels the MACD histogram direction.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// MACDResult holds the MACD line, its signal EMA and the histogram.
// Histogram = Line - Signal by construction.
type MACDResult struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     Trend   `json:"trend"`
}

// BollingerBands holds the three band levels. Upper >= Middle >= Lower.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet is the full indicator reading for one series.
// A nil field means the series was too short for that indicator's window;
// that is a normal outcome, not an error.
type IndicatorSet struct {
	RSI         *float64            `json:"rsi"`
	EMA         map[int]*float64    `json:"ema,omitempty"`
	MACD        *MACDResult         `json:"macd"`
	Bollinger   *BollingerBands     `json:"bollinger"`
	ATR         *float64            `json:"atr"`
	StochasticK *float64            `json:"stochasticK"`
}
