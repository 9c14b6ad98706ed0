package providers

import (
	"context"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"product-catalog-client/internal/catalog"
	"product-catalog-client/internal/config"
	"product-catalog-client/internal/jobs"
	"product-catalog-client/internal/transport"
)

// ProvideTransport provides the catalog API client.
func ProvideTransport(i do.Injector) (*transport.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)

	return transport.New(cfg.Catalog.BaseURL, transport.Options{
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
	}, log), nil
}

// CoordinatorHandle wraps the catalog coordinator with shutdown capability.
type CoordinatorHandle struct {
	*catalog.Coordinator
}

// Shutdown implements do.Shutdownable.
func (h *CoordinatorHandle) Shutdown() error {
	return h.Close()
}

// ProvideCoordinator provides the catalog coordinator and kicks off the first
// refresh when CATALOG_REFRESH_ON_START is set.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)
	client := do.MustInvoke[*transport.Client](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	coordinator := catalog.New(client, storeHandle.LocalStore, catalog.Options{
		PersistSubmissions: cfg.Catalog.PersistSubmissions,
	}, log)

	if cfg.Catalog.RefreshOnStart {
		coordinator.Refresh(context.Background())
		log.Info("Initial catalog refresh started", zap.String("base_url", client.BaseURL()))
	}
	return &CoordinatorHandle{Coordinator: coordinator}, nil
}

// SchedulerHandle wraps the auto refresh scheduler with shutdown capability.
type SchedulerHandle struct {
	*jobs.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *SchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideScheduler provides the auto refresh scheduler, already started.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)
	coordinatorHandle := do.MustInvoke[*CoordinatorHandle](i)

	sched, err := jobs.NewScheduler(cfg.Catalog.AutoRefresh, coordinatorHandle.Coordinator, log)
	if err != nil {
		return nil, err
	}
	sched.Start()
	if !sched.Enabled() {
		log.Info("Auto refresh disabled by configuration")
	}
	return &SchedulerHandle{Scheduler: sched}, nil
}
