package market

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
)

type stubFetcher struct {
	name  string
	price float64
	err   error
	delay time.Duration
}

func (s stubFetcher) Name() string { return s.name }

func (s stubFetcher) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.Quote{Source: s.name, Price: s.price, FetchedAt: time.Now()}, nil
}

func TestAggregateThreeSources(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	res, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "a", price: 98000},
		stubFetcher{name: "b", price: 98200},
		stubFetcher{name: "c", price: 98100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Average != 98100 {
		t.Fatalf("average = %v, want 98100", res.Average)
	}
	if res.Median != 98100 {
		t.Fatalf("median = %v, want 98100", res.Median)
	}
	wantSpread := (98200.0 - 98000.0) / 98100.0
	if math.Abs(res.SpreadPct-wantSpread) > 1e-12 {
		t.Fatalf("spread = %v, want %v", res.SpreadPct, wantSpread)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Fatalf("confidence = %v, want HIGH", res.Confidence)
	}
}

func TestAggregateOrderStatistics(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	cases := [][]float64{
		{100},
		{100, 101},
		{105, 100, 103, 101},
		{50000, 50000, 50000},
	}
	for _, prices := range cases {
		fetchers := make([]domrepo.QuoteFetcher, 0, len(prices))
		for i, p := range prices {
			fetchers = append(fetchers, stubFetcher{name: string(rune('a' + i)), price: p})
		}
		res, err := agg.Aggregate(context.Background(), "ETH", fetchers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Min > res.Median || res.Median > res.Max {
			t.Fatalf("ordering violated: min=%v median=%v max=%v", res.Min, res.Median, res.Max)
		}
		if res.SpreadPct < 0 {
			t.Fatalf("negative spread %v", res.SpreadPct)
		}
	}
}

func TestAggregateIdenticalQuotesZeroSpread(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	res, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "a", price: 50000},
		stubFetcher{name: "b", price: 50000},
		stubFetcher{name: "c", price: 50000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SpreadPct != 0 {
		t.Fatalf("spread = %v, want 0", res.SpreadPct)
	}
}

func TestAggregateFailedSourceExcluded(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	res, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "a", price: 42000},
		stubFetcher{name: "b", err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SourceCount != 1 {
		t.Fatalf("sourceCount = %d, want 1", res.SourceCount)
	}
	if res.Confidence != models.ConfidenceLow {
		t.Fatalf("confidence = %v, want LOW", res.Confidence)
	}
	if res.Errors["b"] == "" {
		t.Fatalf("expected absorbed error for source b")
	}
}

func TestAggregateAllFailed(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	_, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "a", err: errors.New("down")},
		stubFetcher{name: "b", err: errors.New("down")},
	})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAggregateNoFetchers(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	_, err := agg.Aggregate(context.Background(), "BTC", nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAggregateAnomalousSpreadForcesLow(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil)
	res, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "a", price: 90000},
		stubFetcher{name: "b", price: 98000},
		stubFetcher{name: "c", price: 98100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Three sources would be HIGH, but the spread rule wins.
	if res.Confidence != models.ConfidenceLow {
		t.Fatalf("confidence = %v, want LOW on anomalous spread", res.Confidence)
	}
}

func TestAggregateSlowSourceTimesOut(t *testing.T) {
	agg := NewQuoteAggregator(nil, nil, WithSourceTimeout(30*time.Millisecond))
	res, err := agg.Aggregate(context.Background(), "BTC", []domrepo.QuoteFetcher{
		stubFetcher{name: "fast", price: 42000},
		stubFetcher{name: "slow", price: 42100, delay: 500 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SourceCount != 1 {
		t.Fatalf("sourceCount = %d, want 1 (slow source excluded)", res.SourceCount)
	}
}
