package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osoriodev/tienda-backend/api/controllers"
	"github.com/osoriodev/tienda-backend/api/middleware"
	product "github.com/osoriodev/tienda-backend/internal/products"
	purchase "github.com/osoriodev/tienda-backend/internal/purchases"
	"github.com/osoriodev/tienda-backend/pkg/config"
	"github.com/osoriodev/tienda-backend/pkg/db"
	"github.com/osoriodev/tienda-backend/pkg/logger"
	"github.com/osoriodev/tienda-backend/pkg/metrics"
	"github.com/osoriodev/tienda-backend/pkg/redis"
)

// NewRouter wires middleware, health checks, metrics, and the resource
// routes. A nil redis pinger disables the cache readiness check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	productService product.Service,
	purchaseService purchase.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", controllers.Ping())

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/{id}", controllers.GetProduct(productService, logg))
			r.Put("/{id}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{id}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.ListPurchases(purchaseService, logg))
			r.Post("/", controllers.CreatePurchase(purchaseService, logg))
			r.Get("/{id}", controllers.GetPurchase(purchaseService, logg))
			r.Put("/{id}", controllers.UpdatePurchase(purchaseService, logg))
			r.Delete("/{id}", controllers.DeletePurchase(purchaseService, logg))
		})
	})

	return r
}
