//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideEventPublisher,
		ProvideBytesCache,
		ProvideForecastCache,

		// Stores
		ProvideRunStore,
		ProvideVersionStore,
		ProvideArtifactStore,

		// Model pipeline services
		ProvideEngine,
		ProvideAdapterFactory,
		ProvideSuggester,
		ProvideConformal,
		ProvideRetriever,
		ProvideCalibrations,
		ProvideServedLog,
		ProvideRegistry,
		ProvidePriceSource,

		// Use cases
		ProvideTrainerOptions,
		ProvideTrainer,
		ProvideForecaster,
		ProvideBenchmark,
		ProvideVersionLister,

		// Background work
		ProvideQueue,
		ProvideScheduler,
		ProvideTickPipeline,
		ProvideCollector,
		ProvideKafkaConsumer,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
