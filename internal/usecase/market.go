package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	domservice "CoinPulse/internal/domain/service"
	"CoinPulse/pkg/cache"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/util"
)

// MarketDeps bundles the collaborators of MarketUseCase for wiring.
type MarketDeps struct {
	Fetchers   []domrepo.QuoteFetcher
	Aggregator domservice.Aggregator
	Engine     domservice.IndicatorEngine
	Detector   domservice.ZoneDetector
	Composer   domservice.SignalComposer
	Books      domrepo.OrderBookProvider
	Candles    *CandleUseCase
	Publisher  domrepo.SnapshotPublisher // optional
	Loader     *cache.Loader
	Metrics    domrepo.Metrics
	Log        *applogger.Logger

	SnapshotTTL    time.Duration
	CandleLookback int
	BookDepth      int
}

// MarketUseCase orchestrates the engine: aggregation, indicators, zones
// and the composed analysis snapshot.
type MarketUseCase struct {
	deps    MarketDeps
	timeout time.Duration
}

// NewMarketUseCase creates the market use case.
func NewMarketUseCase(deps MarketDeps) *MarketUseCase {
	if deps.SnapshotTTL <= 0 {
		deps.SnapshotTTL = 30 * time.Second
	}
	if deps.CandleLookback <= 0 {
		deps.CandleLookback = 200
	}
	if deps.BookDepth <= 0 {
		deps.BookDepth = 100
	}
	return &MarketUseCase{deps: deps, timeout: 10 * time.Second}
}

// GetPrice aggregates the configured sources into a consensus price.
func (uc *MarketUseCase) GetPrice(ctx context.Context, symbol string) (*models.AggregatedPrice, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	sym := util.NormalizeSymbol(symbol)
	price, err := uc.deps.Aggregator.Aggregate(ctx, sym, uc.deps.Fetchers)
	if err != nil {
		return nil, err
	}
	if uc.deps.Metrics != nil {
		uc.deps.Metrics.RecordLastPrice(sym, price.Average)
	}
	return price, nil
}

// GetCandles returns the latest OHLCV bars for a symbol.
func (uc *MarketUseCase) GetCandles(ctx context.Context, symbol string, interval domrepo.Interval, n int) (*CandleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.deps.Candles.GetCandles(ctx, symbol, interval, n)
}

// GetIndicators computes the indicator set over recent candles.
func (uc *MarketUseCase) GetIndicators(ctx context.Context, symbol string, interval domrepo.Interval, n int) (*models.IndicatorSet, error) {
	res, err := uc.GetCandles(ctx, symbol, interval, n)
	if err != nil {
		return nil, err
	}
	return uc.deps.Engine.Compute(res.Candles), nil
}

// GetZones detects supply/demand zones from the order book and history.
func (uc *MarketUseCase) GetZones(ctx context.Context, symbol string) (*models.ZoneSet, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	sym := util.NormalizeSymbol(symbol)

	price, err := uc.deps.Aggregator.Aggregate(ctx, sym, uc.deps.Fetchers)
	if err != nil {
		return nil, err
	}

	book, candles := uc.fetchDepthAndHistory(ctx, sym, nil)
	return uc.deps.Detector.DetectZones(price.Average, book, candles), nil
}

// GetAnalysis returns the full snapshot for a symbol, cached per symbol
// with request coalescing. Fresh results are published downstream.
func (uc *MarketUseCase) GetAnalysis(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	sym := util.NormalizeSymbol(symbol)
	key := cache.SnapshotKey(sym)

	if snap, err := cache.GetJSON[models.MarketSnapshot](ctx, uc.loaderStore(), key); err == nil {
		if uc.deps.Metrics != nil {
			uc.deps.Metrics.RecordCache("analysis", true)
		}
		snap.Cached = true
		return &snap, nil
	}
	if uc.deps.Metrics != nil {
		uc.deps.Metrics.RecordCache("analysis", false)
	}

	snap, err := cache.Through(ctx, uc.deps.Loader, key, uc.deps.SnapshotTTL,
		func(ctx context.Context) (*models.MarketSnapshot, error) {
			return uc.buildSnapshot(ctx, sym)
		})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// buildSnapshot runs the full pipeline: concurrent price/book/candles,
// then indicators, zones and the composed signal. The price is required;
// book and candle failures degrade to partial output with recorded errors.
func (uc *MarketUseCase) buildSnapshot(ctx context.Context, sym string) (*models.MarketSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	snap := &models.MarketSnapshot{
		Symbol:    sym,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	price, err := uc.deps.Aggregator.Aggregate(ctx, sym, uc.deps.Fetchers)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", sym, err)
	}
	snap.Price = price
	if uc.deps.Metrics != nil {
		uc.deps.Metrics.RecordLastPrice(sym, price.Average)
	}

	book, candles := uc.fetchDepthAndHistory(ctx, sym, snap.Errors)

	if len(candles) > 0 {
		snap.Indicators = uc.deps.Engine.Compute(candles)
	}
	snap.Zones = uc.deps.Detector.DetectZones(price.Average, book, candles)

	sentiment := sentimentFromChange(price.Change24h)
	snap.Signal = uc.deps.Composer.Compose(price, snap.Indicators, snap.Zones, &sentiment)

	if len(snap.Errors) == 0 {
		snap.Errors = nil
	}
	if uc.deps.Metrics != nil {
		uc.deps.Metrics.RecordLatency("analysis", time.Since(start).Seconds())
	}

	uc.publish(snap)
	return snap, nil
}

// fetchDepthAndHistory fans out the order book and candle fetches. Both
// are optional inputs; failures land in errs when provided.
func (uc *MarketUseCase) fetchDepthAndHistory(ctx context.Context, sym string, errs map[string]string) (*models.OrderBook, []models.Candle) {
	type bookItem struct {
		book *models.OrderBook
		err  error
	}
	type candleItem struct {
		res *CandleResult
		err error
	}

	bookCh := make(chan bookItem, 1)
	candleCh := make(chan candleItem, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if uc.deps.Books == nil {
			bookCh <- bookItem{}
			return
		}
		b, err := uc.deps.Books.FetchOrderBook(ctx, sym, uc.deps.BookDepth)
		bookCh <- bookItem{b, err}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := uc.deps.Candles.GetCandles(ctx, sym, domrepo.DefaultInterval(), uc.deps.CandleLookback)
		candleCh <- candleItem{r, err}
	}()

	wg.Wait()

	var book *models.OrderBook
	var candles []models.Candle

	if it := <-bookCh; it.err != nil {
		if errs != nil {
			errs["orderbook"] = it.err.Error()
		}
		uc.deps.Log.Warn("market: order book unavailable",
			applogger.String("symbol", sym), applogger.Error(it.err))
	} else {
		book = it.book
	}

	if it := <-candleCh; it.err != nil {
		if errs != nil {
			errs["candles"] = it.err.Error()
		}
		uc.deps.Log.Warn("market: candles unavailable",
			applogger.String("symbol", sym), applogger.Error(it.err))
	} else {
		candles = it.res.Candles
	}

	return book, candles
}

// publish sends a snapshot downstream without blocking the request.
func (uc *MarketUseCase) publish(snap *models.MarketSnapshot) {
	if uc.deps.Publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.deps.Publisher.Publish(ctx, snap); err != nil {
			uc.deps.Log.Warn("market: snapshot publish failed",
				applogger.String("symbol", snap.Symbol), applogger.Error(err))
		}
	}()
}

func (uc *MarketUseCase) loaderStore() cache.Store {
	return uc.deps.Loader.Store()
}

// sentimentFromChange maps 24h percent change onto a [0,1] sentiment
// proxy: -10% -> 0, 0% -> 0.5, +10% -> 1.
func sentimentFromChange(changePct float64) float64 {
	s := 0.5 + changePct/20
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
