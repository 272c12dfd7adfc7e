package store

import (
	"sync"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

// Hub fans order status events out to subscribers. Multiple independent
// subscribers may watch the same order; delivery is synchronous and in
// subscription order.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(domain.OrderEvent)
}

var _ port.OrderEvents = (*Hub)(nil)

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(domain.OrderEvent))}
}

// Subscribe registers fn for status changes of orderID. The returned
// unsubscribe func is idempotent and safe to call after the subscription
// is already gone.
func (h *Hub) Subscribe(orderID string, fn func(domain.OrderEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[int]func(domain.OrderEvent))
	}
	h.subs[orderID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if m, ok := h.subs[orderID]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, orderID)
				}
			}
		})
	}
}

// Publish delivers event to every subscriber of its order. Callbacks run
// outside the hub lock, so a subscriber may unsubscribe from within one.
func (h *Hub) Publish(event domain.OrderEvent) {
	h.mu.RLock()
	fns := make([]func(domain.OrderEvent), 0, len(h.subs[event.OrderID]))
	for _, fn := range h.subs[event.OrderID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

// SubscriberCount returns the number of active subscribers for an order.
func (h *Hub) SubscriberCount(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[orderID])
}
