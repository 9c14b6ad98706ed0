package providers

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"product-catalog-client/internal/config"
	"product-catalog-client/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the structured logger and installs it as zap's global logger.
func ProvideLogger(i do.Injector) (*zap.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log, err := logger.New(logger.Config{
		Environment: cfg.AppEnv,
		Level:       cfg.LogLevel,
		FileEnable:  cfg.Log.FileEnable,
		Filename:    cfg.Log.Filename,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	log.Info("Starting product catalog client",
		zap.String("environment", cfg.AppEnv),
		zap.String("log_level", cfg.LogLevel),
		zap.String("catalog_base_url", cfg.Catalog.BaseURL),
		zap.String("store_driver", cfg.Store.Driver),
	)
	return log, nil
}
