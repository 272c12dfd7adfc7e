package domain_test

import (
	"testing"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		want     bool
	}{
		{domain.StatusPendingPayment, domain.StatusPaid, true},
		{domain.StatusPendingPayment, domain.StatusCancelled, true},
		{domain.StatusPendingPayment, domain.StatusExpired, true},
		{domain.StatusPendingPayment, domain.StatusPreparing, false},
		{domain.StatusPendingPayment, domain.StatusDelivered, false},
		{domain.StatusPaid, domain.StatusPreparing, true},
		// A paid order is already committed to the kitchen; there is no
		// cancellation path once money moved.
		{domain.StatusPaid, domain.StatusCancelled, false},
		{domain.StatusPaid, domain.StatusReady, false},
		{domain.StatusPreparing, domain.StatusReady, true},
		{domain.StatusPreparing, domain.StatusDelivered, false},
		{domain.StatusReady, domain.StatusDelivered, true},
		{domain.StatusReady, domain.StatusCancelled, false},
		// terminal states accept nothing new
		{domain.StatusDelivered, domain.StatusPreparing, false},
		{domain.StatusCancelled, domain.StatusPaid, false},
		{domain.StatusExpired, domain.StatusPendingPayment, false},
		// re-applying the current status is always allowed
		{domain.StatusPreparing, domain.StatusPreparing, true},
		{domain.StatusDelivered, domain.StatusDelivered, true},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	terminal := []domain.OrderStatus{domain.StatusDelivered, domain.StatusCancelled, domain.StatusExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []domain.OrderStatus{domain.StatusPendingPayment, domain.StatusPaid, domain.StatusPreparing, domain.StatusReady}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if domain.OrderStatus("shipped").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestOrder_SecondsRemaining(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{ExpiresAt: created.Add(15 * time.Minute)}

	// A client reconnecting 14 minutes in sees roughly one minute left,
	// anchored to the persisted deadline rather than a fresh countdown.
	if got := order.SecondsRemaining(created.Add(14 * time.Minute)); got != 60 {
		t.Errorf("remaining at 14m = %d, want 60", got)
	}
	if got := order.SecondsRemaining(created); got != 900 {
		t.Errorf("remaining at creation = %d, want 900", got)
	}
	if got := order.SecondsRemaining(created.Add(15 * time.Minute)); got != 0 {
		t.Errorf("remaining at deadline = %d, want 0", got)
	}
	if got := order.SecondsRemaining(created.Add(20 * time.Minute)); got != 0 {
		t.Errorf("remaining past deadline = %d, want 0", got)
	}
}
