package cache_test

import (
	"testing"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]byte](5 * time.Minute)

	c.Set("order-1", []byte("png bytes"))
	val, ok := c.Get("order-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(val) != "png bytes" {
		t.Errorf("expected 'png bytes', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("order-1", "payload")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("order-1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("order-1", "payload")
	c.Delete("order-1")

	_, ok := c.Get("order-1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_Len(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	if got := c.Len(); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}
