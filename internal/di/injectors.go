//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"predictor/internal"
	"predictor/internal/api"
	"predictor/internal/controllers"
	"predictor/internal/models"
	"predictor/internal/persistence"
	"predictor/internal/providers"
	"predictor/internal/services"
	"predictor/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		api.NewApiClient,
		models.NewClientStore,
		services.NewPredictorService,
		services.NewExportService,
		wire.Bind(new(persistence.IdleEvictor), new(services.PredictorServiceInterface)),

		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,

		controllers.NewPredictionController,
		controllers.NewContactController,
		controllers.NewAccountController,
		controllers.NewExportController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
