package market

import (
	"testing"

	"CoinPulse/internal/domain/models"
)

func TestComposeOversoldBullish(t *testing.T) {
	c := NewComposer()
	rsi := 22.0
	sig := c.Compose(
		&models.AggregatedPrice{Average: 100, Confidence: models.ConfidenceHigh},
		&models.IndicatorSet{
			RSI:  &rsi,
			MACD: &models.MACDResult{Trend: models.TrendBullish, Line: 1, Signal: 0.5, Histogram: 0.5},
		},
		nil, nil,
	)
	if sig.Direction != models.SignalBuy {
		t.Fatalf("direction = %v, want BUY", sig.Direction)
	}
	if sig.Confidence < 50 || sig.Confidence > 100 {
		t.Fatalf("confidence out of bounds: %d", sig.Confidence)
	}
	if len(sig.Reasoning) == 0 {
		t.Fatalf("expected reasoning")
	}
}

func TestComposeOverboughtBearish(t *testing.T) {
	c := NewComposer()
	rsi := 85.0
	k := 92.0
	sig := c.Compose(
		&models.AggregatedPrice{Average: 100, Confidence: models.ConfidenceHigh},
		&models.IndicatorSet{RSI: &rsi, StochasticK: &k},
		nil, nil,
	)
	if sig.Direction != models.SignalSell {
		t.Fatalf("direction = %v, want SELL", sig.Direction)
	}
}

func TestComposeNoInputsNeutral(t *testing.T) {
	c := NewComposer()
	sig := c.Compose(nil, nil, nil, nil)
	if sig.Direction != models.SignalNeutral {
		t.Fatalf("direction = %v, want NEUTRAL", sig.Direction)
	}
	if sig.Confidence < 0 || sig.Confidence > 100 {
		t.Fatalf("confidence out of bounds: %d", sig.Confidence)
	}
}

func TestComposeLowPriceConfidenceCaps(t *testing.T) {
	c := NewComposer()
	rsi := 10.0
	sent := 0.9
	sig := c.Compose(
		&models.AggregatedPrice{Average: 100, Confidence: models.ConfidenceLow},
		&models.IndicatorSet{
			RSI:  &rsi,
			MACD: &models.MACDResult{Trend: models.TrendBullish},
		},
		nil, &sent,
	)
	if sig.Confidence > 60 {
		t.Fatalf("confidence = %d, want capped at 60 on low price confidence", sig.Confidence)
	}
}

func TestComposeSentimentVote(t *testing.T) {
	c := NewComposer()
	neg := 0.1
	sig := c.Compose(nil, nil, nil, &neg)
	if sig.Direction != models.SignalSell {
		t.Fatalf("direction = %v, want SELL on negative sentiment", sig.Direction)
	}
}
