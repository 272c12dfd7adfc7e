package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/service"
)

// ============================================================
// Checkout — POST /v1/orders
// ============================================================

func createOrderHandler(checkout *service.CheckoutService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders")
		defer span.End()

		var req domain.CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		start := time.Now()
		order, err := checkout.CreateOrder(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		metrics.RecordRequestDuration("create_order", time.Since(start))
		span.SetAttributes(attribute.String("order.id", order.ID))

		writeJSON(w, http.StatusCreated, domain.NewOrderResponse(order, time.Now()))
	}
}

// ============================================================
// Order lookup — GET /v1/orders/{orderId}
// ============================================================

func getOrderHandler(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		order, err := orders.Get(ctx, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewOrderResponse(order, time.Now()))
	}
}

// ============================================================
// Payment confirmation — POST /v1/orders/{orderId}/confirm
// ============================================================

func confirmPaymentHandler(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders/{orderId}/confirm")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		span.SetAttributes(attribute.String("order.id", orderID))

		order, err := orders.ConfirmPayment(ctx, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewOrderResponse(order, time.Now()))
	}
}

// ============================================================
// Status updates — POST /v1/orders/{orderId}/status
// ============================================================

func updateStatusHandler(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders/{orderId}/status")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")

		var req domain.StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Status == "" {
			writeError(w, http.StatusBadRequest, "status is required")
			return
		}
		span.SetAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.target", string(req.Status)),
		)

		order, err := orders.Transition(ctx, orderID, req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.NewOrderResponse(order, time.Now()))
	}
}

// ============================================================
// Admin dashboard — GET /v1/admin/orders
// ============================================================

func listOrdersHandler(orders *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/orders")
		defer span.End()

		status := domain.OrderStatus(r.URL.Query().Get("status"))
		list, counts, err := orders.List(ctx, status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		now := time.Now()
		resp := domain.OrderListResponse{
			Orders: make([]domain.OrderResponse, 0, len(list)),
			Counts: counts,
		}
		for i := range list {
			resp.Orders = append(resp.Orders, domain.NewOrderResponse(&list[i], now))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
