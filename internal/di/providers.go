package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CoinPulse/internal/domain/repository"
	domservice "CoinPulse/internal/domain/service"
	"CoinPulse/internal/handler/api"
	"CoinPulse/internal/market"
	internalrepo "CoinPulse/internal/repository"
	"CoinPulse/internal/service/exchange"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/service/stream"
	"CoinPulse/internal/usecase"
	pkgcache "CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/metrics"
	"CoinPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideLimiter creates the shared per-source rate limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Sources.RateLimit.Capacity, cfg.Sources.RateLimit.RefillPerSec)
}

// ProvideBinance creates the Binance adapter. It is always constructed
// because it also serves depth and klines even when disabled as a quote
// source.
func ProvideBinance(cfg *config.Config, limiter *ratelimit.Limiter) *exchange.Binance {
	return exchange.NewBinance(
		exchange.WithBinanceURL(cfg.Sources.Binance.BaseURL),
		exchange.WithBinanceLimiter(limiter),
	)
}

// ProvideCollector creates the WebSocket stream collector, or nil when
// streaming is disabled.
func ProvideCollector(cfg *config.Config, log *applogger.Logger) *stream.Collector {
	if !cfg.Stream.Enabled {
		return nil
	}
	return stream.NewCollector(cfg.Stream.Symbols, log,
		stream.WithWebSocketURL(cfg.Stream.WebSocketURL),
		stream.WithReconnectDelay(cfg.Stream.ReconnectDelay),
		stream.WithPingInterval(cfg.Stream.PingInterval),
		stream.WithMaxQuoteAge(cfg.Stream.MaxQuoteAge),
	)
}

// ProvideFetchers assembles the enabled quote sources. The stream
// collector goes first so a fresh tick is cheapest.
func ProvideFetchers(
	cfg *config.Config,
	binance *exchange.Binance,
	limiter *ratelimit.Limiter,
	collector *stream.Collector,
) []domrepo.QuoteFetcher {
	fetchers := make([]domrepo.QuoteFetcher, 0, 5)

	if collector != nil {
		fetchers = append(fetchers, collector)
	}
	if cfg.Sources.Binance.Enabled {
		fetchers = append(fetchers, binance)
	}
	if cfg.Sources.Coinbase.Enabled {
		fetchers = append(fetchers, exchange.NewCoinbase(
			exchange.WithCoinbaseURL(cfg.Sources.Coinbase.BaseURL),
			exchange.WithCoinbaseLimiter(limiter),
		))
	}
	if cfg.Sources.Kraken.Enabled {
		fetchers = append(fetchers, exchange.NewKraken(
			exchange.WithKrakenURL(cfg.Sources.Kraken.BaseURL),
			exchange.WithKrakenLimiter(limiter),
		))
	}
	if cfg.Sources.CoinGecko.Enabled {
		fetchers = append(fetchers, exchange.NewCoinGecko(
			exchange.WithCoinGeckoURL(cfg.Sources.CoinGecko.BaseURL),
			exchange.WithCoinGeckoKey(cfg.Sources.CoinGecko.APIKey),
			exchange.WithCoinGeckoLimiter(limiter),
		))
	}
	return fetchers
}

// ProvideCacheStore creates the snapshot cache: memory-only, or layered
// over Redis when configured.
func ProvideCacheStore(cfg *config.Config) (pkgcache.Store, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemory(pkgcache.WithDefaultTTL(cfg.Cache.TTL)), nil
	}

	redisStore, err := pkgcache.NewRedis(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayered(redisStore, pkgcache.WithDefaultTTL(cfg.Cache.TTL)), nil
}

// ProvideLoader wraps the cache store with request coalescing.
func ProvideLoader(store pkgcache.Store) *pkgcache.Loader {
	return pkgcache.NewLoader(store)
}

// ProvideClickHouseClient creates the ClickHouse client, or nil when
// persistence is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates the ClickHouse candle store and ensures its
// schema, or returns nil when ClickHouse is disabled.
func ProvideCandleStore(chClient *pkgch.Client, log *applogger.Logger) (domrepo.CandleStore, error) {
	if chClient == nil {
		return nil, nil
	}

	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("candle store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when publishing
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSnapshotPublisher creates the Kafka snapshot publisher, or nil
// when Kafka is disabled.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideAggregator creates the quote aggregator.
func ProvideAggregator(cfg *config.Config, m domrepo.Metrics, log *applogger.Logger) domservice.Aggregator {
	return market.NewQuoteAggregator(m, log,
		market.WithSourceTimeout(cfg.Sources.Timeout),
		market.WithSpreadThreshold(cfg.Sources.SpreadThreshold),
	)
}

// ProvideEngine creates the indicator engine.
func ProvideEngine() domservice.IndicatorEngine {
	return market.NewIndicators()
}

// ProvideDetector creates the zone detector.
func ProvideDetector(cfg *config.Config) domservice.ZoneDetector {
	return market.NewZones(cfg.Market.ZoneTopK)
}

// ProvideComposer creates the signal composer.
func ProvideComposer() domservice.SignalComposer {
	return market.NewComposer()
}

// ProvideCandleUseCase creates the candle use case over the Binance
// kline feed and the optional store.
func ProvideCandleUseCase(
	binance *exchange.Binance,
	store domrepo.CandleStore,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.CandleUseCase {
	return usecase.NewCandleUseCase(binance, store, cfg.Market.AllowStoreFallback, cfg.Market.CandleLookback, log)
}

// ProvideMarketUseCase assembles the orchestrating use case.
func ProvideMarketUseCase(
	cfg *config.Config,
	fetchers []domrepo.QuoteFetcher,
	aggregator domservice.Aggregator,
	engine domservice.IndicatorEngine,
	detector domservice.ZoneDetector,
	composer domservice.SignalComposer,
	binance *exchange.Binance,
	candles *usecase.CandleUseCase,
	publisher domrepo.SnapshotPublisher,
	loader *pkgcache.Loader,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(usecase.MarketDeps{
		Fetchers:       fetchers,
		Aggregator:     aggregator,
		Engine:         engine,
		Detector:       detector,
		Composer:       composer,
		Books:          binance,
		Candles:        candles,
		Publisher:      publisher,
		Loader:         loader,
		Metrics:        m,
		Log:            log,
		SnapshotTTL:    cfg.Market.SnapshotTTL,
		CandleLookback: cfg.Market.CandleLookback,
		BookDepth:      cfg.Market.OrderBookDepth,
	})
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(log *applogger.Logger, market *usecase.MarketUseCase) xhttp.Handler {
	return api.NewMarketEchoHandler(log, market)
}

// ProvideApp assembles the application with its closable resources.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *stream.Collector,
	chClient *pkgch.Client,
	cacheStore pkgcache.Store,
	publisher domrepo.SnapshotPublisher,
) *server.App {
	app := server.New(cfg, log, handler, collector, chClient, cacheStore)
	if publisher != nil {
		app.RegisterCloser(publisher.Close)
	}
	return app
}
