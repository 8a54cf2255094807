package market

import (
	"math"
	"sort"

	"CoinPulse/internal/domain/models"
)

// Zone detection tuning. Shares are fractions of total side volume.
const (
	zoneMinShare        = 0.02
	zoneMinUnits        = 25.0
	zoneVeryStrongShare = 0.10
	zoneVeryStrongUnits = 50.0
	zoneStrongShare     = 0.05
	zoneMediumShare     = 0.03
	zoneTopK            = 4
	swingLookback       = 2
	pivotWindow         = 20
)

var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// Zones clusters order-book volume into supply/demand zones and supplements
// them with pivot, Fibonacci and swing levels from history. Stateless; every
// call recomputes from scratch.
type Zones struct {
	topK int
}

// NewZones returns a zone detector returning up to topK zones per side.
func NewZones(topK int) *Zones {
	if topK <= 0 {
		topK = zoneTopK
	}
	return &Zones{topK: topK}
}

// DetectZones derives ranked zones around currentPrice. With neither book
// nor candles it returns empty lists marked low-confidence; it never
// synthesizes zones from nothing.
func (z *Zones) DetectZones(currentPrice float64, book *models.OrderBook, candles []models.Candle) *models.ZoneSet {
	hasBook := book != nil && (len(book.Bids) > 0 || len(book.Asks) > 0)
	hasHistory := len(candles) > 0
	if !hasBook && !hasHistory {
		return &models.ZoneSet{Supply: []models.Zone{}, Demand: []models.Zone{}, LowConfidence: true}
	}

	var all []models.Zone
	if hasBook {
		all = append(all, clusterSide(book.Bids, models.ZoneDemand)...)
		all = append(all, clusterSide(book.Asks, models.ZoneSupply)...)
	}
	if hasHistory {
		all = append(all, historicalZones(candles, currentPrice)...)
	}

	supply := make([]models.Zone, 0, len(all))
	demand := make([]models.Zone, 0, len(all))
	for _, zn := range all {
		switch {
		case zn.Level > currentPrice:
			zn.Side = models.ZoneSupply
			supply = append(supply, zn)
		case zn.Level < currentPrice:
			zn.Side = models.ZoneDemand
			demand = append(demand, zn)
		}
		// Levels exactly at the current price belong to neither side.
	}

	supply = z.rank(supply, currentPrice)
	demand = z.rank(demand, currentPrice)
	return &models.ZoneSet{Supply: supply, Demand: demand}
}

// bucketSize scales clustering resolution with price magnitude.
func bucketSize(price float64) float64 {
	p := math.Abs(price)
	switch {
	case p >= 10000:
		return 100
	case p >= 1000:
		return 10
	case p >= 100:
		return 1
	case p >= 1:
		return 0.01
	default:
		return 0.0001
	}
}

// clusterSide buckets one book side by rounded price and keeps buckets whose
// volume share or absolute size crosses the minimum thresholds.
func clusterSide(levels []models.BookLevel, side models.ZoneSide) []models.Zone {
	if len(levels) == 0 {
		return nil
	}

	total := 0.0
	for _, l := range levels {
		total += l.Quantity
	}
	if total <= 0 {
		return nil
	}

	buckets := map[float64]float64{}
	for _, l := range levels {
		bs := bucketSize(l.Price)
		key := math.Round(l.Price/bs) * bs
		buckets[key] += l.Quantity
	}

	out := make([]models.Zone, 0, len(buckets))
	for level, vol := range buckets {
		share := vol / total
		if share < zoneMinShare && vol < zoneMinUnits {
			continue
		}
		out = append(out, models.Zone{
			Level:      level,
			Volume:     vol,
			Strength:   strengthFor(share, vol),
			Confidence: shareConfidence(share),
			Source:     models.ZoneFromOrderBook,
			Side:       side,
		})
	}
	return out
}

func strengthFor(share, vol float64) models.ZoneStrength {
	switch {
	case share > zoneVeryStrongShare || vol > zoneVeryStrongUnits:
		return models.ZoneVeryStrong
	case share > zoneStrongShare:
		return models.ZoneStrong
	case share > zoneMediumShare:
		return models.ZoneMedium
	default:
		return models.ZoneWeak
	}
}

// shareConfidence maps volume share to [10,98].
func shareConfidence(share float64) int {
	c := int(share * 500)
	if c > 98 {
		c = 98
	}
	if c < 10 {
		c = 10
	}
	return c
}

// historicalZones derives pivot points, Fibonacci retracements and swing
// levels from the trailing candle window. Sides are assigned by the caller
// relative to the current price.
func historicalZones(candles []models.Candle, currentPrice float64) []models.Zone {
	window := candles
	if len(window) > pivotWindow {
		window = window[len(window)-pivotWindow:]
	}

	hi, lo := window[0].High, window[0].Low
	for _, c := range window {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	close := window[len(window)-1].Close

	var out []models.Zone

	// Standard pivots.
	p := (hi + lo + close) / 3
	for _, level := range []float64{2*p - lo, 2*p - hi, p + (hi - lo), p - (hi - lo)} {
		out = append(out, models.Zone{
			Level:      level,
			Strength:   models.ZoneMedium,
			Confidence: 55,
			Source:     models.ZoneFromPivot,
		})
	}

	// Fibonacci retracements of the same range.
	if hi > lo {
		for _, r := range fibRatios {
			out = append(out, models.Zone{
				Level:      hi - (hi-lo)*r,
				Strength:   models.ZoneWeak,
				Confidence: 45,
				Source:     models.ZoneFromFibonacci,
			})
		}
	}

	// Swing highs/lows: a bar beating its two neighbours on each side.
	for i := swingLookback; i < len(candles)-swingLookback; i++ {
		if isSwingHigh(candles, i) {
			out = append(out, models.Zone{
				Level:      candles[i].High,
				Volume:     candles[i].Volume,
				Strength:   models.ZoneMedium,
				Confidence: 60,
				Source:     models.ZoneFromHistorical,
			})
		}
		if isSwingLow(candles, i) {
			out = append(out, models.Zone{
				Level:      candles[i].Low,
				Volume:     candles[i].Volume,
				Strength:   models.ZoneMedium,
				Confidence: 60,
				Source:     models.ZoneFromHistorical,
			})
		}
	}

	return out
}

func isSwingHigh(candles []models.Candle, i int) bool {
	h := candles[i].High
	for j := i - swingLookback; j <= i+swingLookback; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= h {
			return false
		}
	}
	return true
}

func isSwingLow(candles []models.Candle, i int) bool {
	l := candles[i].Low
	for j := i - swingLookback; j <= i+swingLookback; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= l {
			return false
		}
	}
	return true
}

// rank dedupes near-equal levels, scores by strength + proximity with
// order-book zones winning ties, and keeps the top K.
func (z *Zones) rank(zones []models.Zone, currentPrice float64) []models.Zone {
	if len(zones) == 0 {
		return []models.Zone{}
	}

	merged := dedupe(zones, currentPrice)
	sort.Slice(merged, func(i, j int) bool {
		return zoneScore(merged[i], currentPrice) > zoneScore(merged[j], currentPrice)
	})
	if len(merged) > z.topK {
		merged = merged[:z.topK]
	}
	return merged
}

// dedupe collapses zones within half a bucket of each other, preferring the
// order-book-sourced one and the higher confidence.
func dedupe(zones []models.Zone, currentPrice float64) []models.Zone {
	tol := bucketSize(currentPrice) / 2
	sort.Slice(zones, func(i, j int) bool { return zones[i].Level < zones[j].Level })

	out := make([]models.Zone, 0, len(zones))
	for _, zn := range zones {
		if len(out) > 0 && math.Abs(out[len(out)-1].Level-zn.Level) <= tol {
			prev := &out[len(out)-1]
			if betterZone(zn, *prev) {
				keep := *prev
				*prev = zn
				if keep.Volume > prev.Volume {
					prev.Volume = keep.Volume
				}
			}
			continue
		}
		out = append(out, zn)
	}
	return out
}

// betterZone prefers order-book provenance, then confidence.
func betterZone(a, b models.Zone) bool {
	aBook := a.Source == models.ZoneFromOrderBook
	bBook := b.Source == models.ZoneFromOrderBook
	if aBook != bBook {
		return aBook
	}
	return a.Confidence > b.Confidence
}

var strengthWeight = map[models.ZoneStrength]float64{
	models.ZoneWeak:       1,
	models.ZoneMedium:     2,
	models.ZoneStrong:     3,
	models.ZoneVeryStrong: 4,
}

// zoneScore combines proximity to price with strength; live order-book
// intent outranks historical reaction at equal confidence.
func zoneScore(zn models.Zone, currentPrice float64) float64 {
	dist := math.Abs(zn.Level-currentPrice) / math.Max(currentPrice, 1e-9)
	proximity := 1.0 / (1.0 + dist*20)
	score := strengthWeight[zn.Strength]*proximity + float64(zn.Confidence)/100
	if zn.Source == models.ZoneFromOrderBook {
		score += 0.5
	}
	return score
}
