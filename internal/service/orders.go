package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/observability"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

var orderTracer = otel.Tracer("service")

// OrderService owns the order payment lifecycle. Every transition goes
// through a compare-and-set on the observed status, so only one writer
// ever moves a given order at a time; rejected moves leave the order
// untouched.
type OrderService struct {
	store   port.OrderStore
	events  port.OrderEvents
	watcher *ExpiryWatcher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewOrderService creates the order lifecycle service. Create the expiry
// watcher with NewExpiryWatcher before serving traffic; it attaches
// itself so payments can cancel deadlines.
func NewOrderService(store port.OrderStore, events port.OrderEvents, metrics *observability.Metrics, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:   store,
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

// Events exposes the status change feed for subscription endpoints.
func (s *OrderService) Events() port.OrderEvents {
	return s.events
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.Get")
	defer span.End()

	return s.store.GetOrder(ctx, orderID)
}

// List returns orders filtered by status plus per-status counts over all
// orders, for the admin dashboard.
func (s *OrderService) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, map[domain.OrderStatus]int64, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.List")
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}

	all, err := s.store.ListOrders(ctx, "")
	if err != nil {
		s.metrics.IncrStoreError("list")
		return nil, nil, err
	}

	counts := make(map[domain.OrderStatus]int64)
	filtered := make([]domain.Order, 0, len(all))
	for _, o := range all {
		counts[o.Status]++
		if status == "" || o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, counts, nil
}

// Transition moves an order to the requested status. Re-applying the
// current status is a successful no-op; anything the adjacency table does
// not allow is rejected with ErrIllegalTransition and the current state
// is preserved. Entering paid goes through ConfirmPayment so the expiry
// watcher is dealt with.
func (s *OrderService) Transition(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.target", string(to)))

	if !to.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(to)}
	}
	if to == domain.StatusPaid {
		return s.ConfirmPayment(ctx, orderID)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == to {
		return order, nil // idempotent
	}
	if !order.Status.CanTransition(to) {
		return nil, &domain.ErrIllegalTransition{OrderID: orderID, From: order.Status, To: to}
	}

	updated, err := s.store.CompareAndSetStatus(ctx, orderID, order.Status, to, nil)
	if err != nil {
		var conflict *domain.ErrStatusConflict
		if errors.As(err, &conflict) && conflict.Actual == to {
			// Another writer applied the same transition first.
			return s.store.GetOrder(ctx, orderID)
		}
		return nil, err
	}

	// Leaving pending_payment by cancellation makes the deadline moot.
	if order.Status == domain.StatusPendingPayment {
		s.watcher.Cancel(orderID)
	}

	s.metrics.IncrTransition(order.Status, to)
	s.logger.Info("order transition",
		zap.String("order_id", orderID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// ConfirmPayment records an external payment confirmation: the order
// moves to paid, paidAt is stamped, and any pending expiry is discarded.
// When confirmation and expiry fire concurrently, paid wins: an order the
// watcher is expiring right now is reclaimed, because the confirmation
// means the money actually moved. A confirmation that arrives only after
// the expiry has fully settled is rejected like any other write to a
// terminal order.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := orderTracer.Start(ctx, "OrderService.ConfirmPayment")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	// Stop the timer first so it cannot fire later. Cancel also reports
	// whether an expiry was armed or mid-flight; only in that case may an
	// expired order be reclaimed below.
	racing := s.watcher.Cancel(orderID)

	paidAt := time.Now()
	updated, err := s.store.CompareAndSetStatus(ctx, orderID, domain.StatusPendingPayment, domain.StatusPaid, &paidAt)
	if err == nil {
		s.metrics.IncrTransition(domain.StatusPendingPayment, domain.StatusPaid)
		s.logger.Info("order paid", zap.String("order_id", orderID), zap.Time("paid_at", paidAt))
		return updated, nil
	}

	var conflict *domain.ErrStatusConflict
	if !errors.As(err, &conflict) {
		return nil, err
	}

	switch conflict.Actual {
	case domain.StatusPaid:
		// Confirmation already applied; idempotent.
		return s.store.GetOrder(ctx, orderID)
	case domain.StatusExpired:
		if !racing {
			// The expiry settled before this confirmation started;
			// terminal states accept no further writes.
			return nil, &domain.ErrIllegalTransition{OrderID: orderID, From: conflict.Actual, To: domain.StatusPaid}
		}
		// The expiry won the photo finish. Payment confirmation carries
		// authority, so the expiry is discarded and the order reclaimed.
		reclaimed, reclaimErr := s.store.CompareAndSetStatus(ctx, orderID, domain.StatusExpired, domain.StatusPaid, &paidAt)
		if reclaimErr != nil {
			return nil, reclaimErr
		}
		s.metrics.IncrExpiryLostRace()
		s.metrics.IncrTransition(domain.StatusPendingPayment, domain.StatusPaid)
		s.logger.Warn("payment confirmation beat expiry, order reclaimed",
			zap.String("order_id", orderID),
		)
		return reclaimed, nil
	default:
		return nil, &domain.ErrIllegalTransition{OrderID: orderID, From: conflict.Actual, To: domain.StatusPaid}
	}
}

// expire is called by the watcher when an order's deadline passes. If the
// order already left pending_payment the firing is a no-op.
func (s *OrderService) expire(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ctx, span := orderTracer.Start(ctx, "OrderService.expire")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	_, err := s.store.CompareAndSetStatus(ctx, orderID, domain.StatusPendingPayment, domain.StatusExpired, nil)
	if err != nil {
		var conflict *domain.ErrStatusConflict
		if errors.As(err, &conflict) {
			s.logger.Debug("expiry fired after order left pending_payment",
				zap.String("order_id", orderID),
				zap.String("status", string(conflict.Actual)),
			)
			return
		}
		s.metrics.IncrStoreError("expire")
		s.logger.Error("failed to expire order", zap.String("order_id", orderID), zap.Error(err))
		return
	}

	s.metrics.IncrExpiryFired()
	s.metrics.IncrTransition(domain.StatusPendingPayment, domain.StatusExpired)
	s.logger.Info("order expired", zap.String("order_id", orderID))
}

// RestoreWatchers reschedules expiry deadlines for orders still awaiting
// payment, using their persisted deadlines. Run once at startup; orders
// whose deadline already passed expire immediately.
func (s *OrderService) RestoreWatchers(ctx context.Context) error {
	ctx, span := orderTracer.Start(ctx, "OrderService.RestoreWatchers")
	defer span.End()

	pending, err := s.store.ListOrders(ctx, domain.StatusPendingPayment)
	if err != nil {
		return err
	}
	for _, o := range pending {
		s.watcher.Schedule(o.ID, o.ExpiresAt)
	}
	if len(pending) > 0 {
		s.logger.Info("restored expiry watchers", zap.Int("count", len(pending)))
	}
	return nil
}
