package market

import (
	"fmt"

	"CoinPulse/internal/domain/models"
)

// Composer folds the aggregated price, indicator readings, zones and an
// optional sentiment score into a bounded directional signal. The weights are
// heuristic tuning, not a model.
type Composer struct{}

// NewComposer returns the stateless signal composer.
func NewComposer() *Composer { return &Composer{} }

// Compose produces a direction with confidence in [0,100] and the votes that
// drove it. Missing inputs simply contribute no vote.
func (Composer) Compose(price *models.AggregatedPrice, ind *models.IndicatorSet, zones *models.ZoneSet, sentiment *float64) *models.Signal {
	score := 0
	reasons := make([]string, 0, 8)

	if ind != nil {
		if ind.RSI != nil {
			switch {
			case *ind.RSI < 30:
				score += 2
				reasons = append(reasons, fmt.Sprintf("RSI oversold at %.1f", *ind.RSI))
			case *ind.RSI > 70:
				score -= 2
				reasons = append(reasons, fmt.Sprintf("RSI overbought at %.1f", *ind.RSI))
			}
		}
		if ind.MACD != nil {
			switch ind.MACD.Trend {
			case models.TrendBullish:
				score += 2
				reasons = append(reasons, "MACD histogram positive")
			case models.TrendBearish:
				score -= 2
				reasons = append(reasons, "MACD histogram negative")
			}
		}
		if ind.StochasticK != nil {
			switch {
			case *ind.StochasticK < 20:
				score++
				reasons = append(reasons, fmt.Sprintf("stochastic %%K low at %.1f", *ind.StochasticK))
			case *ind.StochasticK > 80:
				score--
				reasons = append(reasons, fmt.Sprintf("stochastic %%K high at %.1f", *ind.StochasticK))
			}
		}
		if ind.Bollinger != nil && price != nil {
			switch {
			case price.Average < ind.Bollinger.Lower:
				score++
				reasons = append(reasons, "price below lower Bollinger band")
			case price.Average > ind.Bollinger.Upper:
				score--
				reasons = append(reasons, "price above upper Bollinger band")
			}
		}
	}

	if zones != nil && price != nil && price.Average > 0 {
		if v := zoneImbalance(zones, price.Average); v > 0 {
			score++
			reasons = append(reasons, "demand zones outweigh supply")
		} else if v < 0 {
			score--
			reasons = append(reasons, "supply zones outweigh demand")
		}
	}

	if sentiment != nil {
		switch {
		case *sentiment > 0.6:
			score++
			reasons = append(reasons, "positive sentiment")
		case *sentiment < 0.4:
			score--
			reasons = append(reasons, "negative sentiment")
		}
	}

	dir := models.SignalNeutral
	if score > 0 {
		dir = models.SignalBuy
	} else if score < 0 {
		dir = models.SignalSell
	}

	conf := 50 + 8*abs(score)
	if conf > 100 {
		conf = 100
	}
	// A low-confidence consensus price caps the composed confidence.
	if price != nil && price.Confidence == models.ConfidenceLow && conf > 60 {
		conf = 60
		reasons = append(reasons, "capped by low price confidence")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no decisive indicator votes")
	}

	return &models.Signal{Direction: dir, Confidence: conf, Reasoning: reasons}
}

// zoneImbalance compares the nearest strong demand and supply weights.
func zoneImbalance(zones *models.ZoneSet, price float64) int {
	d := sideWeight(zones.Demand)
	s := sideWeight(zones.Supply)
	if d > s {
		return 1
	}
	if s > d {
		return -1
	}
	return 0
}

func sideWeight(zones []models.Zone) float64 {
	w := 0.0
	for _, z := range zones {
		w += strengthWeight[z.Strength] * float64(z.Confidence)
	}
	return w
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
