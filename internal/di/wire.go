//go:build wireinject
// +build wireinject

package di

import (
	"TrendPulse/pkg/config"
	"TrendPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCacheService,

		// Repositories
		ProvideObservationStore,
		ProvideObservationPublisher,
		ProvideEventPublisher,
		ProvideResultCache,
		ProvideLocker,

		// Domain services
		ProvideNarrator,
		ProvideTrendRegistry,

		// Use cases
		ProvideTrendAnalyzer,
		ProvideDashboardUseCase,
		ProvideSeriesUseCase,
		ProvideRecomputeJob,
		ProvideJobQueue,
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaObservationsHandler,

		// HTTP
		ProvideTrendHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
