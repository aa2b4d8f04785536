//go:build wireinject
// +build wireinject

package di

import (
	"GridPulse/pkg/config"
	"GridPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideObservationStorage,
		ProvideObservationPublisher,
		ProvideTelemetryStream,
		ProvideSampleStore,
		ProvideAccuracySource,
		ProvideTransitionLog,

		// Ingest use cases
		ProvideObservationProcessor,
		ProvideObservationCollector,
		ProvideKafkaObservationsHandler,
		ProvideKafkaForecastsHandler,

		// Monitoring services
		ProvideConfigStore,
		ProvideRegistry,
		ProvideDriftEvaluator,
		ProvidePolicyEngine,
		ProvideViolationTracker,
		ProvideDriftAnalysis,
		ProvideTrainingTrigger,
		ProvideQueueWorker,
		ProvideRetraining,
		ProvideABController,
		ProvideSamples,

		// HTTP surface
		ProvideAuthorizer,
		ProvideReportCache,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
