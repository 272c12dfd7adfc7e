package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/store"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := store.NewHub()

	var first, second []domain.OrderStatus
	unsub1 := h.Subscribe("o1", func(ev domain.OrderEvent) { first = append(first, ev.Status) })
	defer unsub1()
	unsub2 := h.Subscribe("o1", func(ev domain.OrderEvent) { second = append(second, ev.Status) })
	defer unsub2()

	h.Publish(domain.OrderEvent{OrderID: "o1", Status: domain.StatusPaid, Timestamp: time.Now()})

	if len(first) != 1 || first[0] != domain.StatusPaid {
		t.Errorf("first subscriber saw %v", first)
	}
	if len(second) != 1 || second[0] != domain.StatusPaid {
		t.Errorf("second subscriber saw %v", second)
	}
}

func TestHub_PublishIsScopedToOrder(t *testing.T) {
	h := store.NewHub()

	var got []string
	unsub := h.Subscribe("o1", func(ev domain.OrderEvent) { got = append(got, ev.OrderID) })
	defer unsub()

	h.Publish(domain.OrderEvent{OrderID: "o2", Status: domain.StatusPaid})

	if len(got) != 0 {
		t.Errorf("subscriber of o1 received events for %v", got)
	}
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h := store.NewHub()

	calls := 0
	unsub := h.Subscribe("o1", func(domain.OrderEvent) { calls++ })

	unsub()
	unsub() // second call must be a safe no-op

	h.Publish(domain.OrderEvent{OrderID: "o1", Status: domain.StatusExpired})
	if calls != 0 {
		t.Errorf("unsubscribed callback ran %d times", calls)
	}
	if h.SubscriberCount("o1") != 0 {
		t.Error("subscriber still registered")
	}
}

func TestHub_UnsubscribeFromWithinCallback(t *testing.T) {
	h := store.NewHub()

	calls := 0
	var unsub func()
	unsub = h.Subscribe("o1", func(domain.OrderEvent) {
		calls++
		unsub()
	})

	h.Publish(domain.OrderEvent{OrderID: "o1", Status: domain.StatusPaid})
	h.Publish(domain.OrderEvent{OrderID: "o1", Status: domain.StatusPreparing})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestNotifying_PublishesOnWrite(t *testing.T) {
	h := store.NewHub()
	s := store.WithEvents(store.NewMemory(), h)
	ctx := context.Background()

	var events []domain.OrderStatus
	unsub := h.Subscribe("o1", func(ev domain.OrderEvent) { events = append(events, ev.Status) })
	defer unsub()

	if err := s.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompareAndSetStatus(ctx, "o1", domain.StatusPendingPayment, domain.StatusPaid, nil); err != nil {
		t.Fatal(err)
	}

	want := []domain.OrderStatus{domain.StatusPendingPayment, domain.StatusPaid}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestNotifying_NoEventOnConflict(t *testing.T) {
	h := store.NewHub()
	s := store.WithEvents(store.NewMemory(), h)
	ctx := context.Background()

	if err := s.CreateOrder(ctx, newTestOrder("o1", domain.StatusPaid)); err != nil {
		t.Fatal(err)
	}

	events := 0
	unsub := h.Subscribe("o1", func(domain.OrderEvent) { events++ })
	defer unsub()

	if _, err := s.CompareAndSetStatus(ctx, "o1", domain.StatusPendingPayment, domain.StatusExpired, nil); err == nil {
		t.Fatal("expected conflict")
	}
	if events != 0 {
		t.Errorf("conflicting write published %d events", events)
	}
}
