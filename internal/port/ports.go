// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// OrderStore persists orders. Implementations must make
// CompareAndSetStatus atomic with respect to concurrent writers: the
// update applies only when the stored status equals expected, otherwise
// ErrStatusConflict is returned and the order is left untouched.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	CompareAndSetStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, paidAt *time.Time) (*domain.Order, error)
}

// OrderEvents delivers order status change notifications, push-based.
// Multiple independent subscribers may observe the same order; Subscribe
// returns an unsubscribe func that is safe to call more than once.
type OrderEvents interface {
	Subscribe(orderID string, fn func(domain.OrderEvent)) (unsubscribe func())
	Publish(event domain.OrderEvent)
}

// QROptions controls QR code rendering.
type QROptions struct {
	Size int // output image width/height in pixels
	// Level is the error correction level: "L", "M", "Q" or "H".
	Level string
}

// QRRenderer turns payload text into a scannable raster image.
// Rendering is a pure function of (text, options).
type QRRenderer interface {
	RenderPNG(text string, opts QROptions) ([]byte, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
