// Package di provides dependency injection configuration for the catalog client.
package di

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"product-catalog-client/internal/config"
	"product-catalog-client/internal/di/providers"
	"product-catalog-client/internal/transport"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage and transport
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideTransport)

	// Catalog
	do.Provide(injector, providers.ProvideCoordinator)
	do.Provide(injector, providers.ProvideScheduler)

	// Servers
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideHealthReporter)
	do.Provide(injector, providers.ProvideGRPCServer)

	return injector
}

// Bootstrap initializes every service in dependency order and returns the first
// failure, so a bad config or an unavailable store stops startup with an error.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		invoke[*config.Config](injector),
		invoke[*zap.Logger](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*transport.Client](injector),
		invoke[*providers.CoordinatorHandle](injector),
		invoke[*providers.SchedulerHandle](injector),
		invoke[*providers.HTTPServerHandle](injector),
		invoke[*providers.HealthReporterHandle](injector),
		invoke[*providers.GRPCServerHandle](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
