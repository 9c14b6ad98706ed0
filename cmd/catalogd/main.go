// Package main provides the entry point for the product catalog client.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"product-catalog-client/internal/di"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap catalog client: %v\n", err)
		os.Exit(1)
	}

	logger := do.MustInvoke[*zap.Logger](injector)
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some platforms

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down catalog client gracefully...", zap.String("signal", sig.String()))

	// The container shuts services down in reverse dependency order:
	// servers first, then the scheduler and coordinator, then the store.
	if err := injector.Shutdown(); err != nil {
		logger.Error("Shutdown error", zap.Any("error", err))
	}

	logger.Info("Catalog client stopped")
}
