//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"github.com/jobs/eventhub/internal/api"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/form"
	"github.com/jobs/eventhub/internal/handlers"
	"github.com/jobs/eventhub/internal/infra/persistence/formrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/listenerrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/schedulerepo"
	"github.com/jobs/eventhub/internal/listener"
	"github.com/jobs/eventhub/internal/metrics"
	"github.com/jobs/eventhub/internal/orm"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/internal/service"
	"github.com/jobs/eventhub/pkg/config"
	"go.uber.org/zap"
)

func InitializeApp(logger *zap.Logger, cfg config.Config, storage *orm.Storage) (*App, func(), error) {
	wire.Build(
		NewApp,

		ProvideDB,
		ProvideBuiltinEvents,
		ProvideCatalogue,
		ProvideKinds,
		ProvideHandlerRegistry,
		ProvideBus,
		ProvideRedisClient,
		ProvideTransport,
		ProvideReceiver,

		wire.Bind(new(api.Pinger), new(*orm.Storage)),

		// other
		metrics.New,
		handlers.New,
		scheduler.Provider,
		cluster.Provider,
		listener.NewLoader,
		form.NewCache,

		// http api providers
		api.Provider,

		// service providers
		service.Provider,

		// infra providers
		schedulerepo.Provider,
		listenerrepo.Provider,
		formrepo.Provider,
	)
	return nil, nil, nil
}
