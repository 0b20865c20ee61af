//go:build wireinject
// +build wireinject

package di

import (
	"InvestAgent/pkg/config"
	"InvestAgent/pkg/server"

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
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories
		ProvideTickStore,
		ProvideCandleStore,
		ProvidePerformanceStore,
		ProvideTickPublisher,
		ProvideAlertStore,

		// Feed
		ProvideFeedRegistry,
		ProvideMarketStream,

		// Market data flow
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,

		// Alerting
		ProvideCooldownGuard,
		ProvideNotifiers,
		ProvideAlertEngine,

		// Models and LLM
		ProvideModelSelector,
		ProvideCompleter,
		ProvideAnalysisOrchestrator,
		ProvideComplianceChecker,
		ProvideAnalysisQueue,
		ProvideAsyncAnalysis,

		// HTTP
		ProvideResponseCache,
		ProvideCandlesUseCase,
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
