//go:build wireinject
// +build wireinject

package di

import (
	"CoinPulse/pkg/config"
	"CoinPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Infrastructure clients
		ProvideCacheStore,
		ProvideLoader,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Sources
		ProvideBinance,
		ProvideCollector,
		ProvideFetchers,

		// Repositories
		ProvideCandleStore,
		ProvideSnapshotPublisher,

		// Engine
		ProvideAggregator,
		ProvideEngine,
		ProvideDetector,
		ProvideComposer,

		// Use cases and HTTP
		ProvideCandleUseCase,
		ProvideMarketUseCase,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
