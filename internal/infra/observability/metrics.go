package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/pedidofacil/pix-checkout-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the checkout backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	payloadBuilds    *prometheus.CounterVec
	payloadDuration  prometheus.Histogram
	orderTransitions *prometheus.CounterVec
	expiryFired      prometheus.Counter
	expiryLostRace   prometheus.Counter
	storeErrors      *prometheus.CounterVec
	subscribers      prometheus.Gauge
	requestDuration  *prometheus.HistogramVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		payloadBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_payload_builds_total",
				Help: "Total BR Code payload builds by result.",
			},
			[]string{"result"},
		),
		payloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "checkout_payload_build_seconds",
				Help:    "Duration of payload build plus QR rendering.",
				Buckets: prometheus.DefBuckets,
			},
		),
		orderTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_order_transitions_total",
				Help: "Order status transitions applied, by source and target.",
			},
			[]string{"from", "to"},
		),
		expiryFired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_expiry_fired_total",
				Help: "Orders expired by the watcher.",
			},
		),
		expiryLostRace: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "checkout_expiry_lost_race_total",
				Help: "Expiry firings discarded because payment won the race.",
			},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_store_errors_total",
				Help: "Order store failures by operation.",
			},
			[]string{"operation"},
		),
		subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "checkout_order_subscribers",
				Help: "Currently connected order event subscribers.",
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkout_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// IncrPayloadBuild counts a payload build attempt: "success" or a failure
// reason such as "validation" or "encoding".
func (m *Metrics) IncrPayloadBuild(result string) {
	m.payloadBuilds.WithLabelValues(result).Inc()
}

// RecordPayloadDuration records the time spent building one payment view.
func (m *Metrics) RecordPayloadDuration(d time.Duration) {
	m.payloadDuration.Observe(d.Seconds())
}

// IncrTransition counts an applied order status transition.
func (m *Metrics) IncrTransition(from, to domain.OrderStatus) {
	m.orderTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// IncrExpiryFired counts an order expired by the watcher.
func (m *Metrics) IncrExpiryFired() {
	m.expiryFired.Inc()
}

// IncrExpiryLostRace counts an expiry discarded because the order was paid.
func (m *Metrics) IncrExpiryLostRace() {
	m.expiryLostRace.Inc()
}

// IncrStoreError counts an order store failure.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// AddSubscribers moves the connected-subscriber gauge by delta.
func (m *Metrics) AddSubscribers(delta float64) {
	m.subscribers.Add(delta)
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// CheckoutSnapshot is the JSON view served by GET /v1/metrics/checkout.
type CheckoutSnapshot struct {
	PayloadsBuilt   float64 `json:"payloadsBuilt"`
	PayloadFailures float64 `json:"payloadFailures"`
	OrdersExpired   float64 `json:"ordersExpired"`
	ExpiryRacesLost float64 `json:"expiryRacesLost"`
	OrdersPaid      float64 `json:"ordersPaid"`
}

// Snapshot gathers current counter values for the metrics endpoint.
// Prometheus counters expose cumulative values.
func (m *Metrics) Snapshot() *CheckoutSnapshot {
	return &CheckoutSnapshot{
		PayloadsBuilt:   counterValue(m.payloadBuilds, "success"),
		PayloadFailures: counterValue(m.payloadBuilds, "validation") + counterValue(m.payloadBuilds, "encoding"),
		OrdersExpired:   plainCounterValue(m.expiryFired),
		ExpiryRacesLost: plainCounterValue(m.expiryLostRace),
		OrdersPaid:      counterValue(m.orderTransitions, string(domain.StatusPendingPayment), string(domain.StatusPaid)),
	}
}

func counterValue(vec *prometheus.CounterVec, labels ...string) float64 {
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

func plainCounterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
