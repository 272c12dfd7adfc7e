package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/service"
)

var tracer = otel.Tracer("handler")

// Services groups everything the router needs.
type Services struct {
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Config   *service.ConfigService
	Auth     *service.AuthService
	Metrics  *observability.Metrics
}

// NewRouter creates the HTTP router with all routes and middleware.
// The storefront talks to the public routes; the kitchen dashboard uses
// the admin routes behind JWT auth.
func NewRouter(svcs Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Orders, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(svcs.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Storefront: checkout and payment
		r.Post("/orders", createOrderHandler(svcs.Checkout, svcs.Metrics, logger))
		r.Get("/orders/{orderId}", getOrderHandler(svcs.Orders, logger))
		r.Get("/orders/{orderId}/pix", getPixPaymentHandler(svcs.Payments, logger))
		r.Get("/orders/{orderId}/events", orderEventsHandler(svcs.Orders, svcs.Metrics, logger))

		// Merchant config view used by the payment page
		r.Get("/config/pix", getPixConfigHandler(svcs.Config, logger))

		// Metrics snapshot for the dashboard
		r.Get("/metrics/checkout", checkoutMetricsHandler(svcs.Metrics))

		// Admin login
		r.Post("/admin/login", adminLoginHandler(svcs.Auth, logger))

		// Admin: order management and config, behind JWT
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))
			r.Get("/admin/orders", listOrdersHandler(svcs.Orders, logger))
			r.Post("/orders/{orderId}/confirm", confirmPaymentHandler(svcs.Orders, logger))
			r.Post("/orders/{orderId}/status", updateStatusHandler(svcs.Orders, logger))
			r.Put("/config/pix", updatePixConfigHandler(svcs.Config, logger))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		storeStatus := "healthy"
		var latency int64
		if orders != nil {
			start := time.Now()
			_, _, err := orders.List(r.Context(), domain.StatusPendingPayment)
			latency = time.Since(start).Milliseconds()
			if err != nil {
				storeStatus = "degraded"
				logger.Warn("healthz: order store probe failed", zap.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": storeStatus,
			"services": []map[string]any{
				{"name": "checkout-api", "status": "healthy", "latency_ms": 0, "last_checked": now.Format(time.RFC3339)},
				{"name": "order-store", "status": storeStatus, "latency_ms": latency, "last_checked": now.Format(time.RFC3339)},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func checkoutMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
