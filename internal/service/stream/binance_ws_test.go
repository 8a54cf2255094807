package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestFetchQuoteFreshTick(t *testing.T) {
	c := NewCollector([]string{"BTC"}, testLogger(t), WithMaxQuoteAge(time.Minute))

	c.record(miniTicker{
		Event:  "24hrMiniTicker",
		Symbol: "BTCUSDT",
		Close:  "98100.5",
		Open:   "97000",
		Volume: "123.4",
	})

	q, err := c.FetchQuote(context.Background(), "btc")
	if err != nil {
		t.Fatalf("fetch quote: %v", err)
	}
	if q.Price != 98100.5 {
		t.Errorf("price = %v", q.Price)
	}
	if q.Source != "stream" {
		t.Errorf("source = %s", q.Source)
	}
	if q.Change24h <= 0 {
		t.Errorf("change should be positive, got %v", q.Change24h)
	}
}

func TestFetchQuoteUnknownSymbol(t *testing.T) {
	c := NewCollector([]string{"BTC"}, testLogger(t))

	_, err := c.FetchQuote(context.Background(), "ETH")
	if !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("expected ErrStaleQuote, got %v", err)
	}
}

func TestFetchQuoteStaleTick(t *testing.T) {
	c := NewCollector([]string{"BTC"}, testLogger(t), WithMaxQuoteAge(10*time.Millisecond))

	c.mu.Lock()
	c.latest["BTC"] = models.Quote{
		Source:    "stream",
		Price:     98000,
		FetchedAt: time.Now().Add(-time.Second),
	}
	c.mu.Unlock()

	_, err := c.FetchQuote(context.Background(), "BTC")
	if !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("expected ErrStaleQuote for old tick, got %v", err)
	}
}

func TestRecordIgnoresBadPrice(t *testing.T) {
	c := NewCollector([]string{"BTC"}, testLogger(t))

	c.record(miniTicker{Event: "24hrMiniTicker", Symbol: "BTCUSDT", Close: "garbage"})

	c.mu.RLock()
	_, ok := c.latest["BTC"]
	c.mu.RUnlock()
	if ok {
		t.Fatal("unparseable tick should not be recorded")
	}
}
