package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"product-catalog-client/internal/config"
	domainerrors "product-catalog-client/internal/errors"
)

// Open returns the LocalStore selected by cfg.Driver. Failures are storage
// errors; deciding whether to continue without persistence is up to the caller.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		s   LocalStore
		err error
	)
	// Each branch assigns through a concrete variable so a failed open yields a nil interface.
	switch cfg.Driver {
	case config.DriverSQLite, "":
		var sq *SQLStore
		if sq, err = OpenSQLite(ctx, cfg.Path, logger); err == nil {
			s = sq
		}
	case config.DriverPostgres:
		var pg *SQLStore
		if pg, err = OpenPostgres(ctx, cfg.Postgres.DSN(), logger); err == nil {
			s = pg
		}
	case config.DriverBolt:
		var bs *BoltStore
		if bs, err = OpenBolt(cfg.Path, logger); err == nil {
			s = bs
		}
	case config.DriverMemory:
		s = NewMemoryStore()
	default:
		err = domainerrors.Storage(fmt.Sprintf("store: unknown driver %q", cfg.Driver), nil)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("local store opened", zap.String("driver", cfg.Driver), zap.String("path", cfg.Path))
	return s, nil
}
