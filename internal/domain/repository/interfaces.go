package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// QuoteFetcher fetches one normalized ticker reading from a single source.
// A fetcher failure is non-fatal: the aggregator absorbs it and carries on.
type QuoteFetcher interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// OrderBookProvider fetches a depth snapshot for a symbol.
type OrderBookProvider interface {
	FetchOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
}

// CandleProvider fetches the latest n OHLCV bars, time-ascending.
type CandleProvider interface {
	FetchCandles(ctx context.Context, symbol string, interval Interval, n int) ([]models.Candle, error)
}

// CandleStore persists fetched bars and serves them back as history.
type CandleStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, candles []models.Candle) error
	GetLatestN(ctx context.Context, symbol string, interval Interval, n int) ([]models.Candle, error)
	Close() error
}

// SnapshotPublisher pushes computed market snapshots to downstream consumers.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap *models.MarketSnapshot) error
	Close() error
}

// Metrics records operational counters for the engine and its adapters.
type Metrics interface {
	RecordFetch(source, result string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCache(op string, hit bool)
}
