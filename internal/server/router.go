package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"newsstand/internal/commons"
	dashboardctrl "newsstand/internal/dashboard/controller"
	productctrl "newsstand/internal/product/controller"
	salectrl "newsstand/internal/sale/controller"
)

// PingFunc reports whether the backing store is reachable. A nil PingFunc
// makes /health always succeed.
type PingFunc func(ctx context.Context) error

const healthTimeout = 2 * time.Second

func NewRouter(
	products *productctrl.ProductController,
	sales *salectrl.SaleController,
	dashboard *dashboardctrl.DashboardController,
	ping PingFunc,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", health(ping, logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Post("/", products.Create)
			r.Get("/low-stock", products.LowStock)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", products.Get)
				r.Put("/", products.Update)
				r.Delete("/", products.Remove)
				r.Post("/stock", products.AddStock)
				r.Post("/stock/remove", products.RemoveStock)
				r.Post("/activate", products.Activate)
				r.Post("/deactivate", products.Deactivate)
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", sales.List)
			r.Post("/", sales.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sales.Get)
				r.Delete("/", sales.Remove)
				r.Patch("/note", sales.UpdateNote)
			})
		})

		r.Get("/dashboard", dashboard.Get)
	})

	return r
}

func health(ping PingFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := ping(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				commons.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, logger)
				return
			}
		}
		commons.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("request completed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("traceId", ww.Header().Get(commons.TraceHeader)),
					zap.String("remoteAddr", r.RemoteAddr),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
