package providers

import (
	"context"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"product-catalog-client/internal/config"
	"product-catalog-client/internal/store"
)

// StoreHandle wraps the local store with shutdown capability.
type StoreHandle struct {
	store.LocalStore
	// Degraded is set when the configured store could not be opened and an
	// empty in-memory store stands in for it.
	Degraded bool
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured local store. When that fails, STORE_ON_INIT_FAILURE
// decides between aborting startup and continuing with an empty in-memory store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s, err := store.Open(ctx, cfg.Store, log)
	if err == nil {
		return &StoreHandle{LocalStore: s}, nil
	}

	if cfg.Store.OnInitFailure == config.OnInitFailureFail {
		log.Error("Local store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return nil, err
	}

	log.Warn("Local store unavailable, continuing with an empty in-memory store",
		zap.String("driver", cfg.Store.Driver),
		zap.String("path", cfg.Store.Path),
		zap.Error(err),
	)
	return &StoreHandle{LocalStore: store.NewMemoryStore(), Degraded: true}, nil
}
