// Package httpx exposes the checkout and catalog services over HTTP.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nikolayk812/storefront/internal/httpx/middlewares"
	"github.com/nikolayk812/storefront/internal/pkg/metrics"
)

type RouterConfig struct {
	Auth           *middlewares.Authenticator
	RateLimiter    *middlewares.IPRateLimiter // optional
	Metrics        *metrics.ServerMetrics     // optional
	MetricsHandler http.Handler               // optional, served on /metrics
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middlewares.Instrument(cfg.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Get("/products/new", handler.NewArrivals)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Authenticate)

			r.Post("/orders", handler.CreateOrder)
			r.Post("/orders/quote", handler.QuoteOrder)
			r.Get("/orders", handler.ListOrders)
			r.Get("/orders/{id}", handler.GetOrder)
			r.Patch("/orders/{id}/status", handler.ChangeStatus)
			r.Delete("/orders/{id}", handler.DeleteOrder)
		})
	})

	return r
}
