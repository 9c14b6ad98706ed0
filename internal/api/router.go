package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"product-catalog-client/internal/catalog"
)

const serviceName = "ProductCatalogClient"

// NewRouter builds the bridge router: base middleware, CORS, health check and catalog routes.
func NewRouter(h *HTTPHandler, allowedOrigins []string, requestTimeout time.Duration) *chi.Mux {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(h.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/api/v1/healthz", h.Healthz)
	h.RegisterRoutes(router)
	return router
}

// Healthz reports liveness plus the state of the last catalog fetch.
// It always answers 200; the payload carries the detail.
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	st := h.catalog.Snapshot()
	catalogStatus := "healthy"
	if st.Status == catalog.StatusFailed {
		catalogStatus = "unhealthy"
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"serviceName":   serviceName,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"catalog":       catalogStatus,
		"catalogStatus": st.Status,
	})
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
