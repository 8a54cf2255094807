package market

import (
	"math"

	"CoinPulse/internal/domain/models"
)

// Default indicator parameters, matching common charting conventions.
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	BollingerPeriod  = 20
	BollingerK       = 2.0
	ATRPeriod        = 14
	StochasticPeriod = 14
)

// EMAPeriods are the EMA windows included in a full IndicatorSet.
var EMAPeriods = []int{12, 26, 50}

// Indicators computes the standard indicator set over an ordered price
// series. All functions are pure; a nil return means the series is shorter
// than the indicator's minimum window.
type Indicators struct{}

// NewIndicators returns the stateless indicator engine.
func NewIndicators() *Indicators { return &Indicators{} }

// Compute derives the full indicator set from time-ascending candles.
func (Indicators) Compute(candles []models.Candle) *models.IndicatorSet {
	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	emas := make(map[int]*float64, len(EMAPeriods))
	for _, p := range EMAPeriods {
		emas[p] = EMA(closes, p)
	}

	return &models.IndicatorSet{
		RSI:         RSI(closes, RSIPeriod),
		EMA:         emas,
		MACD:        MACD(closes, MACDFast, MACDSlow, MACDSignal),
		Bollinger:   Bollinger(closes, BollingerPeriod, BollingerK),
		ATR:         ATR(highs, lows, closes, ATRPeriod),
		StochasticK: StochasticK(highs, lows, closes, StochasticPeriod),
	}
}

// RSI computes Wilder's Relative Strength Index. The first average gain/loss
// is a simple mean over the first period deltas; later values use Wilder's
// smoothing avg = (avg*(period-1) + new) / period. Needs len >= period+1.
func RSI(closes []float64, period int) *float64 {
	if period < 1 || len(closes) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss += -d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return ptr(100)
	}
	rs := avgGain / avgLoss
	return ptr(100 - 100/(1+rs))
}

// SMA is the mean of the last period values. Needs len >= period.
func SMA(closes []float64, period int) *float64 {
	if period < 1 || len(closes) < period {
		return nil
	}
	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return ptr(sum / float64(period))
}

// EMA seeds with the simple mean of the first period values, then applies
// the 2/(period+1) multiplier recurrence. Needs len >= period.
func EMA(closes []float64, period int) *float64 {
	series := emaSeries(closes, period)
	if series == nil {
		return nil
	}
	return ptr(series[len(series)-1])
}

// emaSeries returns the EMA value at each bar from index period-1 onward,
// so series[i] corresponds to closes[period-1+i].
func emaSeries(closes []float64, period int) []float64 {
	if period < 1 || len(closes) < period {
		return nil
	}
	seed := 0.0
	for _, c := range closes[:period] {
		seed += c
	}
	seed /= float64(period)

	mult := 2.0 / float64(period+1)
	out := make([]float64, 0, len(closes)-period+1)
	out = append(out, seed)
	ema := seed
	for _, c := range closes[period:] {
		ema = c*mult + ema*(1-mult)
		out = append(out, ema)
	}
	return out
}

// MACD computes line = EMA(fast) - EMA(slow) and feeds the rolling MACD-line
// history into an EMA(signalPeriod) for the signal, so the signal is a true
// EMA over history rather than a scaled copy of the line.
// Needs len >= slow + signalPeriod.
func MACD(closes []float64, fast, slow, signalPeriod int) *models.MACDResult {
	if fast < 1 || slow <= fast || signalPeriod < 1 {
		return nil
	}
	if len(closes) < slow+signalPeriod {
		return nil
	}

	fastS := emaSeries(closes, fast)
	slowS := emaSeries(closes, slow)
	if fastS == nil || slowS == nil {
		return nil
	}

	// Both series are index-aligned to closes from their own seed bar;
	// the MACD line exists from the slow seed bar onward.
	offset := slow - fast
	history := make([]float64, len(slowS))
	for i := range slowS {
		history[i] = fastS[i+offset] - slowS[i]
	}

	signalS := emaSeries(history, signalPeriod)
	if signalS == nil {
		return nil
	}

	line := history[len(history)-1]
	signal := signalS[len(signalS)-1]
	hist := line - signal

	// Deadband scaled to price so NEUTRAL behaves across asset magnitudes.
	eps := math.Max(0.0005*math.Abs(closes[len(closes)-1]), 1e-9)
	trend := models.TrendNeutral
	if hist > eps {
		trend = models.TrendBullish
	} else if hist < -eps {
		trend = models.TrendBearish
	}

	return &models.MACDResult{Line: line, Signal: signal, Histogram: hist, Trend: trend}
}

// Bollinger computes middle = SMA(period) with bands at k population
// standard deviations. Needs len >= period.
func Bollinger(closes []float64, period int, k float64) *models.BollingerBands {
	mid := SMA(closes, period)
	if mid == nil {
		return nil
	}
	variance := 0.0
	for _, c := range closes[len(closes)-period:] {
		d := c - *mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return &models.BollingerBands{
		Upper:  *mid + k*sd,
		Middle: *mid,
		Lower:  *mid - k*sd,
	}
}

// ATR is the simple mean of the last period true ranges, where
// TR_i = max(high-low, |high-prevClose|, |low-prevClose|).
// Needs len >= period+1 with index-aligned highs/lows/closes.
func ATR(highs, lows, closes []float64, period int) *float64 {
	n := len(closes)
	if period < 1 || n < period+1 || len(highs) != n || len(lows) != n {
		return nil
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		prevClose := closes[i-1]
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-prevClose), math.Abs(lows[i]-prevClose)))
		sum += tr
	}
	return ptr(sum / float64(period))
}

// StochasticK computes %K over the trailing period window. A flat range
// (highest high == lowest low) yields nil rather than a division by zero.
func StochasticK(highs, lows, closes []float64, period int) *float64 {
	n := len(closes)
	if period < 1 || n < period || len(highs) != n || len(lows) != n {
		return nil
	}
	hh := highs[n-period]
	ll := lows[n-period]
	for i := n - period + 1; i < n; i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
		if lows[i] < ll {
			ll = lows[i]
		}
	}
	if hh == ll {
		return nil
	}
	return ptr((closes[n-1] - ll) / (hh - ll) * 100)
}

func ptr(v float64) *float64 { return &v }
