package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiryWatcher arms one timer per pending order, anchored to the
// order's persisted deadline. Scheduling the same order again replaces
// the previous timer; cancelling is idempotent and safe after the timer
// fired.
type ExpiryWatcher struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	firing map[string]struct{}
	expire func(orderID string)
	logger *zap.Logger
}

// NewExpiryWatcher creates the watcher for an order service and attaches
// it, so payments cancel deadlines and firings expire orders.
func NewExpiryWatcher(orders *OrderService, logger *zap.Logger) *ExpiryWatcher {
	w := &ExpiryWatcher{
		timers: make(map[string]*time.Timer),
		firing: make(map[string]struct{}),
		expire: orders.expire,
		logger: logger,
	}
	orders.watcher = w
	return w
}

// Schedule arms the expiry timer for an order. The delay is computed
// from the deadline, never from a fixed duration, so restarts and
// reconnects keep the original deadline. A deadline already in the past
// fires immediately.
func (w *ExpiryWatcher) Schedule(orderID string, deadline time.Time) {
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.timers[orderID]; ok {
		prev.Stop()
	}
	w.timers[orderID] = time.AfterFunc(delay, func() {
		w.fired(orderID)
	})

	w.logger.Debug("expiry scheduled",
		zap.String("order_id", orderID),
		zap.Time("deadline", deadline),
		zap.Duration("delay", delay),
	)
}

// Cancel disarms the timer for an order, if one is armed. It reports
// whether an expiry could still race the caller: a timer was armed, or a
// firing is executing at this moment. Once a firing has fully settled,
// Cancel returns false.
func (w *ExpiryWatcher) Cancel(orderID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	armed := false
	if t, ok := w.timers[orderID]; ok {
		t.Stop()
		delete(w.timers, orderID)
		armed = true
	}
	_, inFlight := w.firing[orderID]
	return armed || inFlight
}

// Stop disarms every timer. Used on shutdown.
func (w *ExpiryWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
}

// Pending reports how many timers are armed.
func (w *ExpiryWatcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

func (w *ExpiryWatcher) fired(orderID string) {
	w.mu.Lock()
	// The timer may have been replaced by a later Schedule; only the
	// currently registered firing proceeds. time.AfterFunc gives no
	// handle to compare, so a replaced timer that already started
	// executing is caught by the compare-and-set in expire instead.
	delete(w.timers, orderID)
	// Mark the firing so a payment confirmation arriving mid-expiry can
	// tell a photo finish apart from a long-settled expiry.
	w.firing[orderID] = struct{}{}
	w.mu.Unlock()

	w.expire(orderID)

	w.mu.Lock()
	delete(w.firing, orderID)
	w.mu.Unlock()
}
