package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/service"
)

const heartbeatInterval = 15 * time.Second

// statusEvent is the SSE payload pushed on every status change. The
// remaining time is always derived from the persisted deadline, so a
// client that reconnects sees the true remainder, never a fresh window.
type statusEvent struct {
	OrderID          string             `json:"orderId"`
	Status           domain.OrderStatus `json:"status"`
	PaidAt           string             `json:"paidAt,omitempty"`
	SecondsRemaining int64              `json:"secondsRemaining"`
	Timestamp        string             `json:"timestamp"`
}

// ============================================================
// Status stream — GET /v1/orders/{orderId}/events
// ============================================================

func orderEventsHandler(orders *service.OrderService, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}/events")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		span.SetAttributes(attribute.String("order.id", orderID))

		order, err := orders.Get(ctx, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		// Subscribe before the snapshot so no transition falls between
		// the initial read and the live stream. The buffer absorbs
		// bursts; a slow client at worst misses intermediate states and
		// still sees the latest one.
		events := make(chan domain.OrderEvent, 8)
		unsubscribe := orders.Events().Subscribe(orderID, func(ev domain.OrderEvent) {
			select {
			case events <- ev:
			default:
			}
		})
		defer unsubscribe()

		metrics.AddSubscribers(1)
		defer metrics.AddSubscribers(-1)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		deadline := order.ExpiresAt
		writeStatusEvent(w, statusEvent{
			OrderID:          order.ID,
			Status:           order.Status,
			PaidAt:           formatPaidAt(order.PaidAt),
			SecondsRemaining: order.SecondsRemaining(time.Now()),
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		})
		flusher.Flush()

		logger.Debug("event stream opened", zap.String("order_id", orderID))

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("event stream closed", zap.String("order_id", orderID))
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case ev := <-events:
				remaining := int64(0)
				if ev.Status == domain.StatusPendingPayment && time.Now().Before(deadline) {
					remaining = int64(time.Until(deadline).Seconds())
				}
				writeStatusEvent(w, statusEvent{
					OrderID:          ev.OrderID,
					Status:           ev.Status,
					PaidAt:           formatPaidAt(ev.PaidAt),
					SecondsRemaining: remaining,
					Timestamp:        ev.Timestamp.UTC().Format(time.RFC3339),
				})
				flusher.Flush()

				if ev.Status.Terminal() {
					logger.Debug("event stream finished",
						zap.String("order_id", orderID),
						zap.String("status", string(ev.Status)),
					)
					return
				}
			}
		}
	}
}

func writeStatusEvent(w http.ResponseWriter, ev statusEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
}

func formatPaidAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
