// Package store provides order persistence: an in-memory store for
// development and tests, a PostgREST-backed store for production, and an
// event-publishing decorator shared by both.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

// Memory is a thread-safe in-memory order store.
type Memory struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

var _ port.OrderStore = (*Memory)(nil)

// NewMemory creates an empty in-memory order store.
func NewMemory() *Memory {
	return &Memory{orders: make(map[string]*domain.Order)}
}

// CreateOrder stores a new order. The id must not already exist.
func (m *Memory) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[order.ID]; exists {
		return &domain.ErrValidation{Field: "id", Message: "order already exists: " + order.ID}
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

// GetOrder returns a copy of the stored order.
func (m *Memory) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "order", ID: orderID}
	}
	cp := *o
	return &cp, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (m *Memory) ListOrders(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CompareAndSetStatus applies expected -> next atomically. The write only
// happens when the stored status equals expected; otherwise the order is
// untouched and ErrStatusConflict reports what was actually there.
func (m *Memory) CompareAndSetStatus(_ context.Context, orderID string, expected, next domain.OrderStatus, paidAt *time.Time) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "order", ID: orderID}
	}
	if o.Status != expected {
		return nil, &domain.ErrStatusConflict{OrderID: orderID, Expected: expected, Actual: o.Status}
	}

	o.Status = next
	o.UpdatedAt = time.Now()
	if paidAt != nil {
		o.PaidAt = paidAt
	}

	cp := *o
	return &cp, nil
}
