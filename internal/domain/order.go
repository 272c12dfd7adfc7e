package domain

import "time"

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusExpired        OrderStatus = "expired"
)

// transitions is the adjacency table of the order state machine.
// Terminal states (delivered, cancelled, expired) have no outgoing edges.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPaid, StatusCancelled, StatusExpired},
	StatusPaid:           {StatusPreparing},
	StatusPreparing:      {StatusReady},
	StatusReady:          {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusExpired:        {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are accepted from s.
func (s OrderStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the state machine allows s -> to.
// Re-applying the current status is always allowed (idempotent no-op).
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == to {
		return true
	}
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order. The schema is fixed at write time:
// handlers validate name/unitPrice/quantity before the order is stored,
// so readers never need to guess field names.
type OrderItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Order is a customer order and its payment lifecycle.
type Order struct {
	ID           string      `json:"id"`
	OrderNumber  string      `json:"order_number"`
	CustomerName string      `json:"customer_name,omitempty"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	PaidAt       *time.Time  `json:"paid_at,omitempty"`
	// ExpiresAt is the persisted payment deadline, anchored to order
	// creation. Clients compute remaining time as ExpiresAt - now; the
	// deadline is never restarted on reconnect.
	ExpiresAt time.Time `json:"expires_at"`
}

// SecondsRemaining returns the whole seconds left until the payment
// deadline at the given instant, clamped at zero.
func (o *Order) SecondsRemaining(now time.Time) int64 {
	if !now.Before(o.ExpiresAt) {
		return 0
	}
	return int64(o.ExpiresAt.Sub(now).Seconds())
}

// OrderEvent is a status change notification pushed to subscribers.
type OrderEvent struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	PaidAt    *time.Time  `json:"paid_at,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ============================================================
// API request/response types
// ============================================================

// CheckoutRequest is the body for POST /v1/orders.
type CheckoutRequest struct {
	CustomerName string      `json:"customerName,omitempty"`
	Items        []OrderItem `json:"items"`
}

// OrderResponse is the order representation returned to the storefront.
type OrderResponse struct {
	ID               string      `json:"id"`
	OrderNumber      string      `json:"orderNumber"`
	CustomerName     string      `json:"customerName,omitempty"`
	Items            []OrderItem `json:"items"`
	Total            float64     `json:"total"`
	Status           OrderStatus `json:"status"`
	CreatedAt        string      `json:"createdAt"`
	PaidAt           string      `json:"paidAt,omitempty"`
	ExpiresAt        string      `json:"expiresAt"`
	SecondsRemaining int64       `json:"secondsRemaining"`
}

// StatusUpdateRequest is the body for POST /v1/orders/{orderId}/status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderListResponse is returned by GET /v1/admin/orders.
type OrderListResponse struct {
	Orders []OrderResponse       `json:"orders"`
	Counts map[OrderStatus]int64 `json:"counts"`
}

// NewOrderResponse builds the API view of an order at the given instant.
func NewOrderResponse(o *Order, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerName:     o.CustomerName,
		Items:            o.Items,
		Total:            o.Total,
		Status:           o.Status,
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		ExpiresAt:        o.ExpiresAt.Format(time.RFC3339),
		SecondsRemaining: o.SecondsRemaining(now),
	}
	if o.PaidAt != nil {
		resp.PaidAt = o.PaidAt.Format(time.RFC3339)
	}
	return resp
}
