package store

import (
	"context"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

// Notifying decorates an OrderStore so every successful write publishes a
// status event. Reads pass through untouched. This keeps notification
// behavior identical whether the backing store is in-memory or PostgREST.
type Notifying struct {
	port.OrderStore
	events port.OrderEvents
}

var _ port.OrderStore = (*Notifying)(nil)

// WithEvents wraps inner so its writes publish to events.
func WithEvents(inner port.OrderStore, events port.OrderEvents) *Notifying {
	return &Notifying{OrderStore: inner, events: events}
}

// CreateOrder stores the order and announces its initial status.
func (n *Notifying) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := n.OrderStore.CreateOrder(ctx, order); err != nil {
		return err
	}
	n.events.Publish(domain.OrderEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: time.Now(),
	})
	return nil
}

// CompareAndSetStatus applies the transition and, on success, publishes
// the new status to subscribers.
func (n *Notifying) CompareAndSetStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, paidAt *time.Time) (*domain.Order, error) {
	order, err := n.OrderStore.CompareAndSetStatus(ctx, orderID, expected, next, paidAt)
	if err != nil {
		return nil, err
	}
	n.events.Publish(domain.OrderEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		PaidAt:    order.PaidAt,
		Timestamp: time.Now(),
	})
	return order, nil
}
