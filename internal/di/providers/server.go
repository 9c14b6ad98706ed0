package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"product-catalog-client/internal/api"
	"product-catalog-client/internal/config"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	listener net.Listener
}

// ListenAddr returns the address the server is listening on.
func (h *HTTPServerHandle) ListenAddr() net.Addr {
	return h.listener.Addr()
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the presentation bridge HTTP server, already serving.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)
	coordinatorHandle := do.MustInvoke[*CoordinatorHandle](i)

	handler := api.NewHTTPHandler(coordinatorHandle.Coordinator, log)
	router := api.NewRouter(handler, cfg.HttpServer.AllowedOrigins, cfg.HttpServer.TimeoutWrite)

	srv := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      router,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
		}
		log.Info("HTTP server has stopped")
	}()

	return &HTTPServerHandle{Server: srv, listener: ln}, nil
}

// HealthReporterHandle wraps the gRPC health reporter with its coordinator subscription.
type HealthReporterHandle struct {
	*api.HealthReporter
	unsubscribe func()
}

// Shutdown implements do.Shutdownable.
func (h *HealthReporterHandle) Shutdown() error {
	h.unsubscribe()
	h.HealthReporter.Shutdown()
	return nil
}

// ProvideHealthReporter provides a health reporter fed by coordinator state changes.
func ProvideHealthReporter(i do.Injector) (*HealthReporterHandle, error) {
	log := do.MustInvoke[*zap.Logger](i)
	coordinatorHandle := do.MustInvoke[*CoordinatorHandle](i)

	reporter := api.NewHealthReporter(log)
	// Subscribe first so no state change falls between the snapshot and the subscription.
	unsubscribe, err := coordinatorHandle.Subscribe(reporter.Observe)
	if err != nil {
		return nil, err
	}
	reporter.Observe(coordinatorHandle.Snapshot())
	return &HealthReporterHandle{HealthReporter: reporter, unsubscribe: unsubscribe}, nil
}

// GRPCServerHandle wraps grpc.Server with Shutdownable.
type GRPCServerHandle struct {
	*grpc.Server
	listener net.Listener
	log      *zap.Logger
}

// ListenAddr returns the address the server is listening on.
func (h *GRPCServerHandle) ListenAddr() net.Addr {
	return h.listener.Addr()
}

// Shutdown implements do.Shutdownable. It stops gracefully, forcing the stop
// when in-flight RPCs outlast the shutdown timeout.
func (h *GRPCServerHandle) Shutdown() error {
	stopped := make(chan struct{})
	go func() {
		h.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		h.log.Info("gRPC server gracefully shut down")
	case <-time.After(shutdownTimeout):
		h.log.Warn("gRPC server graceful shutdown timed out, forcing stop")
		h.Stop()
	}
	return nil
}

// ProvideGRPCServer provides the gRPC health server, already serving.
func ProvideGRPCServer(i do.Injector) (*GRPCServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*zap.Logger](i)
	reporterHandle := do.MustInvoke[*HealthReporterHandle](i)

	srv := api.NewGRPCServer(reporterHandle.HealthReporter, log)
	ln, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("gRPC server error", zap.Error(err))
		}
		log.Info("gRPC server has stopped")
	}()

	return &GRPCServerHandle{Server: srv, listener: ln, log: log}, nil
}
