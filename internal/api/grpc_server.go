package api

import (
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"product-catalog-client/internal/catalog"
)

// CatalogHealthService is the gRPC health service name that tracks the catalog fetch.
const CatalogHealthService = "catalog.ProductCatalog"

// HealthReporter mirrors coordinator state into a gRPC health server.
type HealthReporter struct {
	server *health.Server
	logger *zap.Logger

	mu       sync.Mutex
	observed bool
	version  uint64
}

// NewHealthReporter returns a reporter whose services start as SERVING.
func NewHealthReporter(logger *zap.Logger) *HealthReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	hs := health.NewServer()
	hs.SetServingStatus(CatalogHealthService, grpc_health_v1.HealthCheckResponse_SERVING)
	return &HealthReporter{server: hs, logger: logger.Named("grpc")}
}

// Observe updates the serving status from a coordinator state. It is meant to be
// registered with catalog.Coordinator.Subscribe. States older than the last one
// observed are ignored.
func (h *HealthReporter) Observe(st catalog.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.observed && st.Version <= h.version {
		return
	}
	h.observed = true
	h.version = st.Version

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if st.Status == catalog.StatusFailed {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus(CatalogHealthService, status)
	h.server.SetServingStatus("", status)
}

// Server returns the underlying health server.
func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Shutdown marks every service NOT_SERVING so watchers see the process going away.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

// NewGRPCServer creates a gRPC server exposing the health service and reflection.
func NewGRPCServer(reporter *HealthReporter, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := grpc.NewServer()

	grpc_health_v1.RegisterHealthServer(s, reporter.Server())
	logger.Info("gRPC health check service registered")

	// Useful for tools like grpcurl.
	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s
}
