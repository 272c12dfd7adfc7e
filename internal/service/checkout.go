package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

// CheckoutService turns a cart into a pending order with a payment
// deadline. The total is always computed server side from the items;
// any total sent by the client is ignored.
type CheckoutService struct {
	store          port.OrderStore
	watcher        *ExpiryWatcher
	paymentTimeout time.Duration
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewCheckoutService creates the checkout service. paymentTimeout is how
// long a new order waits for payment before expiring.
func NewCheckoutService(store port.OrderStore, watcher *ExpiryWatcher, paymentTimeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:          store,
		watcher:        watcher,
		paymentTimeout: paymentTimeout,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateOrder validates the cart, persists a pending_payment order and
// arms its expiry timer.
func (s *CheckoutService) CreateOrder(ctx context.Context, req domain.CheckoutRequest) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "CheckoutService.CreateOrder")
	defer span.End()

	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	var total float64
	for _, item := range req.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	total = math.Round(total*100) / 100

	now := time.Now()
	order := &domain.Order{
		ID:           uuid.New().String(),
		OrderNumber:  newOrderNumber(now),
		CustomerName: req.CustomerName,
		Items:        req.Items,
		Total:        total,
		Status:       domain.StatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(s.paymentTimeout),
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.metrics.IncrStoreError("create")
		return nil, err
	}

	s.watcher.Schedule(order.ID, order.ExpiresAt)

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
		zap.Time("expires_at", order.ExpiresAt),
	)
	return order, nil
}

func validateItems(items []domain.OrderItem) error {
	if len(items) == 0 {
		return &domain.ErrValidation{Field: "items", Message: "order must contain at least one item"}
	}
	for i, item := range items {
		if item.Name == "" {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].name", i), Message: "item name is required"}
		}
		if item.UnitPrice <= 0 || math.IsNaN(item.UnitPrice) || math.IsInf(item.UnitPrice, 0) {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].unitPrice", i), Message: "unit price must be positive"}
		}
		if item.Quantity <= 0 {
			return &domain.ErrValidation{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be positive"}
		}
	}
	return nil
}

// newOrderNumber derives a short human-readable number for receipts and
// the payment reference. Uniqueness is carried by the order id; this is
// display-only.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("#%06d", now.UnixMilli()%1_000_000)
}
