package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/store"
)

func newTestOrder(id string, status domain.OrderStatus) *domain.Order {
	now := time.Now()
	return &domain.Order{
		ID:          id,
		OrderNumber: "#000" + id,
		Items:       []domain.OrderItem{{Name: "X-Burger", UnitPrice: 23.50, Quantity: 1}},
		Total:       23.50,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(15 * time.Minute),
	}
}

func TestMemory_CreateAndGet(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := m.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.StatusPendingPayment {
		t.Errorf("status = %s", got.Status)
	}
}

func TestMemory_CreateDuplicate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err == nil {
		t.Fatal("expected error on duplicate id")
	}
}

func TestMemory_GetNotFound(t *testing.T) {
	m := store.NewMemory()

	_, err := m.GetOrder(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err != nil {
		t.Fatal(err)
	}

	first, _ := m.GetOrder(ctx, "o1")
	first.Status = domain.StatusCancelled

	second, _ := m.GetOrder(ctx, "o1")
	if second.Status != domain.StatusPendingPayment {
		t.Error("mutating a returned order must not affect the store")
	}
}

func TestMemory_CompareAndSetStatus(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPendingPayment)); err != nil {
		t.Fatal(err)
	}

	paidAt := time.Now()
	updated, err := m.CompareAndSetStatus(ctx, "o1", domain.StatusPendingPayment, domain.StatusPaid, &paidAt)
	if err != nil {
		t.Fatalf("CAS failed: %v", err)
	}
	if updated.Status != domain.StatusPaid {
		t.Errorf("status = %s", updated.Status)
	}
	if updated.PaidAt == nil || !updated.PaidAt.Equal(paidAt) {
		t.Error("paidAt not stamped")
	}
}

func TestMemory_CompareAndSetStatus_Conflict(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if err := m.CreateOrder(ctx, newTestOrder("o1", domain.StatusPaid)); err != nil {
		t.Fatal(err)
	}

	_, err := m.CompareAndSetStatus(ctx, "o1", domain.StatusPendingPayment, domain.StatusExpired, nil)
	var conflict *domain.ErrStatusConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
	if conflict.Actual != domain.StatusPaid {
		t.Errorf("conflict.Actual = %s", conflict.Actual)
	}

	// The order must be untouched.
	got, _ := m.GetOrder(ctx, "o1")
	if got.Status != domain.StatusPaid {
		t.Errorf("order mutated on conflict: %s", got.Status)
	}
}

func TestMemory_ListOrders(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for _, o := range []*domain.Order{
		newTestOrder("o1", domain.StatusPendingPayment),
		newTestOrder("o2", domain.StatusPaid),
		newTestOrder("o3", domain.StatusPaid),
	} {
		if err := m.CreateOrder(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	all, err := m.ListOrders(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 orders, got %d", len(all))
	}

	paid, err := m.ListOrders(ctx, domain.StatusPaid)
	if err != nil {
		t.Fatal(err)
	}
	if len(paid) != 2 {
		t.Errorf("expected 2 paid orders, got %d", len(paid))
	}
}
