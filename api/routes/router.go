package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kennahq/kenna-pos-backend/api/controllers"
	"github.com/kennahq/kenna-pos-backend/api/middleware"
	cartsvc "github.com/kennahq/kenna-pos-backend/internal/cart"
	catalogsvc "github.com/kennahq/kenna-pos-backend/internal/catalog"
	checkoutsvc "github.com/kennahq/kenna-pos-backend/internal/checkout"
	"github.com/kennahq/kenna-pos-backend/internal/orders"
	"github.com/kennahq/kenna-pos-backend/internal/payments"
	"github.com/kennahq/kenna-pos-backend/pkg/config"
	"github.com/kennahq/kenna-pos-backend/pkg/db"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	paymentsRepo payments.Repository,
	ordersRepo orders.Repository,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalogService, logg))
			r.Post("/", controllers.ProductCreate(catalogService, logg))
			r.Get("/low-stock", controllers.ProductLowStock(catalogService, logg))
			r.Get("/out-of-stock", controllers.ProductOutOfStock(catalogService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RegisterContext(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.Checkout(checkoutService, logg))
				r.Post("/cancel", controllers.CheckoutCancel(checkoutService, logg))
				r.Get("/status", controllers.CheckoutStatus(checkoutService, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(paymentsRepo, logg))
			r.Get("/export", controllers.PaymentExport(paymentsRepo, logg))
			r.Get("/unsynced", controllers.PaymentUnsynced(checkoutService, logg))
			r.Post("/unsynced/retry", controllers.PaymentRetryUnsynced(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersRepo, logg))
			r.Get("/{reference}", controllers.OrderDetail(ordersRepo, logg))
		})
	})

	return r
}
