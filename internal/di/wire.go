//go:build wireinject
// +build wireinject

package di

import (
	"BondPulse/pkg/config"
	"BondPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideHTTPClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideJobQueue,
		ProvideQueueService,

		// Repositories
		ProvideBondSource,
		ProvideCurveStore,
		ProvideCurvePublisher,
		ProvideCollectionStore,

		// Use cases
		ProvideCalculator,
		ProvideCurveProcessor,
		ProvideScreener,
		ProvideCurveHistory,
		ProvideRefresher,
		ProvideKafkaCurveHandler,

		// HTTP
		ProvideUpdatesHub,
		ProvideBondsHandler,
		ProvideCurveHandler,
		ProvideCollectionsHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
