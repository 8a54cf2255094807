package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/cache"
	applogger "CoinPulse/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type stubAggregator struct {
	price *models.AggregatedPrice
	err   error
	calls int32
}

func (s *stubAggregator) Aggregate(_ context.Context, symbol string, _ []domrepo.QuoteFetcher) (*models.AggregatedPrice, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	p := *s.price
	p.Symbol = symbol
	return &p, nil
}

type stubEngine struct{}

func (stubEngine) Compute(_ []models.Candle) *models.IndicatorSet {
	return &models.IndicatorSet{}
}

type stubDetector struct{}

func (stubDetector) DetectZones(_ float64, _ *models.OrderBook, _ []models.Candle) *models.ZoneSet {
	return &models.ZoneSet{}
}

type stubComposer struct{}

func (stubComposer) Compose(_ *models.AggregatedPrice, _ *models.IndicatorSet, _ *models.ZoneSet, _ *float64) *models.Signal {
	return &models.Signal{Direction: models.SignalNeutral, Confidence: 50}
}

type stubBooks struct {
	book *models.OrderBook
	err  error
}

func (s *stubBooks) FetchOrderBook(_ context.Context, symbol string, _ int) (*models.OrderBook, error) {
	if s.err != nil {
		return nil, s.err
	}
	b := *s.book
	b.Symbol = symbol
	return &b, nil
}

type stubCandleProvider struct {
	candles []models.Candle
	err     error
}

func (s *stubCandleProvider) FetchCandles(_ context.Context, _ string, _ domrepo.Interval, _ int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

type stubCandleStore struct {
	candles []models.Candle
	stored  int32
	err     error
}

func (s *stubCandleStore) Init(context.Context) error { return nil }

func (s *stubCandleStore) StoreBatch(_ context.Context, candles []models.Candle) error {
	atomic.AddInt32(&s.stored, int32(len(candles)))
	return nil
}

func (s *stubCandleStore) GetLatestN(_ context.Context, _ string, _ domrepo.Interval, _ int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func (s *stubCandleStore) Close() error { return nil }

type stubPublisher struct {
	published int32
}

func (s *stubPublisher) Publish(_ context.Context, _ *models.MarketSnapshot) error {
	atomic.AddInt32(&s.published, 1)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func sampleCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		price := 97000 + float64(i)*10
		out[i] = models.Candle{
			Bucket:   base.Add(time.Duration(i) * time.Hour),
			Symbol:   "BTC",
			Interval: "1h",
			Open:     price,
			High:     price + 50,
			Low:      price - 50,
			Close:    price + 20,
			Volume:   10,
		}
	}
	return out
}

func newTestUseCase(t *testing.T, agg *stubAggregator, books *stubBooks, provider *stubCandleProvider, pub *stubPublisher) (*MarketUseCase, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory()
	t.Cleanup(func() { mem.Close() })

	log := testLogger(t)
	candles := NewCandleUseCase(provider, nil, false, 200, log)

	deps := MarketDeps{
		Aggregator:  agg,
		Engine:      stubEngine{},
		Detector:    stubDetector{},
		Composer:    stubComposer{},
		Books:       books,
		Candles:     candles,
		Loader:      cache.NewLoader(mem),
		Log:         log,
		SnapshotTTL: time.Minute,
	}
	if pub != nil {
		deps.Publisher = pub
	}
	return NewMarketUseCase(deps), mem
}

func TestGetAnalysisBuildsFullSnapshot(t *testing.T) {
	agg := &stubAggregator{price: &models.AggregatedPrice{Average: 98100, Change24h: 2.0, Confidence: models.ConfidenceHigh}}
	books := &stubBooks{book: &models.OrderBook{}}
	provider := &stubCandleProvider{candles: sampleCandles(30)}
	pub := &stubPublisher{}

	uc, _ := newTestUseCase(t, agg, books, provider, pub)

	snap, err := uc.GetAnalysis(context.Background(), "btc")
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}

	if snap.Symbol != "BTC" {
		t.Errorf("symbol = %s", snap.Symbol)
	}
	if snap.Price == nil || snap.Price.Average != 98100 {
		t.Errorf("price missing or wrong: %+v", snap.Price)
	}
	if snap.Indicators == nil {
		t.Error("indicators missing")
	}
	if snap.Zones == nil {
		t.Error("zones missing")
	}
	if snap.Signal == nil {
		t.Error("signal missing")
	}
	if snap.Cached {
		t.Error("first build must not be marked cached")
	}
	if len(snap.Errors) != 0 {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
}

func TestGetAnalysisServesCachedSnapshot(t *testing.T) {
	agg := &stubAggregator{price: &models.AggregatedPrice{Average: 98100}}
	books := &stubBooks{book: &models.OrderBook{}}
	provider := &stubCandleProvider{candles: sampleCandles(30)}

	uc, _ := newTestUseCase(t, agg, books, provider, nil)

	if _, err := uc.GetAnalysis(context.Background(), "BTC"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	snap, err := uc.GetAnalysis(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !snap.Cached {
		t.Error("second call should be served from cache")
	}
	if n := atomic.LoadInt32(&agg.calls); n != 1 {
		t.Errorf("aggregator ran %d times, want 1", n)
	}
}

func TestGetAnalysisPartialDegradation(t *testing.T) {
	agg := &stubAggregator{price: &models.AggregatedPrice{Average: 98100}}
	books := &stubBooks{err: errors.New("depth endpoint down")}
	provider := &stubCandleProvider{err: errors.New("klines down")}

	uc, _ := newTestUseCase(t, agg, books, provider, nil)

	snap, err := uc.GetAnalysis(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("analysis should degrade, not fail: %v", err)
	}

	if snap.Price == nil {
		t.Fatal("price is required")
	}
	if _, ok := snap.Errors["orderbook"]; !ok {
		t.Error("order book failure not recorded")
	}
	if _, ok := snap.Errors["candles"]; !ok {
		t.Error("candle failure not recorded")
	}
	if snap.Indicators != nil {
		t.Error("indicators should be absent without candles")
	}
	if snap.Signal == nil {
		t.Error("signal should still be composed from price alone")
	}
}

func TestGetAnalysisFailsWithoutPrice(t *testing.T) {
	agg := &stubAggregator{err: errors.New("all sources down")}
	books := &stubBooks{book: &models.OrderBook{}}
	provider := &stubCandleProvider{candles: sampleCandles(30)}

	uc, _ := newTestUseCase(t, agg, books, provider, nil)

	if _, err := uc.GetAnalysis(context.Background(), "BTC"); err == nil {
		t.Fatal("expected error when aggregation fails")
	}
}

func TestCandleFallbackDisabled(t *testing.T) {
	provider := &stubCandleProvider{err: errors.New("exchange down")}
	store := &stubCandleStore{candles: sampleCandles(5)}

	uc := NewCandleUseCase(provider, store, false, 200, testLogger(t))

	_, err := uc.GetCandles(context.Background(), "BTC", domrepo.IV1h, 5)
	if err == nil {
		t.Fatal("fallback disabled: expected error")
	}
}

func TestCandleFallbackEnabled(t *testing.T) {
	provider := &stubCandleProvider{err: errors.New("exchange down")}
	store := &stubCandleStore{candles: sampleCandles(5)}

	uc := NewCandleUseCase(provider, store, true, 200, testLogger(t))

	res, err := uc.GetCandles(context.Background(), "BTC", domrepo.IV1h, 5)
	if err != nil {
		t.Fatalf("fallback enabled: %v", err)
	}
	if res.Origin != CandleOriginStore {
		t.Errorf("origin = %s, want store", res.Origin)
	}
	if len(res.Candles) != 5 {
		t.Errorf("got %d candles", len(res.Candles))
	}
}

func TestCandleFallbackEmptyStore(t *testing.T) {
	provider := &stubCandleProvider{err: errors.New("exchange down")}
	store := &stubCandleStore{candles: nil}

	uc := NewCandleUseCase(provider, store, true, 200, testLogger(t))

	_, err := uc.GetCandles(context.Background(), "BTC", domrepo.IV1h, 5)
	if err == nil {
		t.Fatal("empty store must not satisfy the request")
	}
	if !strings.Contains(err.Error(), "store empty") {
		t.Errorf("error should mention empty store: %v", err)
	}
}

func TestCandleLivePersistsToStore(t *testing.T) {
	provider := &stubCandleProvider{candles: sampleCandles(10)}
	store := &stubCandleStore{}

	uc := NewCandleUseCase(provider, store, true, 200, testLogger(t))

	res, err := uc.GetCandles(context.Background(), "BTC", domrepo.IV1h, 10)
	if err != nil {
		t.Fatalf("live fetch: %v", err)
	}
	if res.Origin != CandleOriginLive {
		t.Errorf("origin = %s, want live", res.Origin)
	}

	// persist runs async
	deadline := time.After(time.Second)
	for atomic.LoadInt32(&store.stored) != 10 {
		select {
		case <-deadline:
			t.Fatalf("persisted %d rows, want 10", atomic.LoadInt32(&store.stored))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSentimentFromChange(t *testing.T) {
	cases := []struct {
		change float64
		want   float64
	}{
		{0, 0.5},
		{10, 1},
		{-10, 0},
		{40, 1},
		{-40, 0},
		{5, 0.75},
	}
	for _, tc := range cases {
		if got := sentimentFromChange(tc.change); got != tc.want {
			t.Errorf("sentimentFromChange(%v) = %v, want %v", tc.change, got, tc.want)
		}
	}
}
