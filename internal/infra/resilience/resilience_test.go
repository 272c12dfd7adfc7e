package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
	"github.com/pedidofacil/pix-checkout-go/internal/infra/resilience"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RetriesOnTransientFailure(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_DoesNotRetryValidation(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	})

	var valErr *domain.ErrValidation
	if !errors.As(err, &valErr) {
		t.Fatalf("expected the validation error back, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("validation errors must not be retried: %d calls", callCount)
	}
}

func TestRetryWithBackoff_DoesNotRetryStatusConflict(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 10 * time.Millisecond,
	}

	callCount := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		callCount++
		return &domain.ErrStatusConflict{OrderID: "o1", Expected: domain.StatusPendingPayment, Actual: domain.StatusPaid}
	})

	var conflict *domain.ErrStatusConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected the conflict back, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("conflicts must not be retried: %d calls", callCount)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
	}

	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

func TestRetryWithBackoff_RespectsContext(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("error")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := resilience.NewBulkhead(1)

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := b.Acquire(ctx); err == nil {
		t.Fatal("second acquire should block until timeout")
	}

	b.Release()
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestExecute_MapsOpenBreaker(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test-store")
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}

	// Trip the breaker: 5+ requests with >= 60% failures.
	for i := 0; i < 6; i++ {
		_ = resilience.Execute(context.Background(), cb, cfg, "test-store", func() error {
			return errors.New("down")
		})
	}

	err := resilience.Execute(context.Background(), cb, cfg, "test-store", func() error {
		return nil
	})
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen once tripped, got %v", err)
	}
}
