package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the point-of-sale service
type Metrics struct {
	OrdersSubmitted         prometheus.Counter
	OrderNumberCollisions   prometheus.Counter
	StatusUpdates           *prometheus.CounterVec
	SubmitOrderDuration     prometheus.Histogram
	RealtimeConnections     prometheus.Gauge
	RealtimeMessagesDropped prometheus.Counter
	OrdersPruned            prometheus.Counter
}

// New creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_orders_submitted_total",
			Help: "Total number of orders accepted",
		}),
		OrderNumberCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_order_number_collisions_total",
			Help: "Order number collisions that triggered a retry",
		}),
		StatusUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_order_status_updates_total",
			Help: "Order status changes by target status",
		}, []string{"status"}),
		SubmitOrderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pos_submit_order_duration_seconds",
			Help:    "Duration of order submission including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RealtimeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pos_realtime_connections",
			Help: "Currently connected ordering and kitchen screens",
		}),
		RealtimeMessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_realtime_messages_dropped_total",
			Help: "Outbound realtime messages skipped because the connection was closed or backed up",
		}),
		OrdersPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_housekeeping_orders_pruned_total",
			Help: "Orders deleted by the retention job",
		}),
	}
}

// IncrementOrdersSubmitted records an accepted order
func (m *Metrics) IncrementOrdersSubmitted() {
	m.OrdersSubmitted.Inc()
}

// IncrementOrderNumberCollisions records a retried order number
func (m *Metrics) IncrementOrderNumberCollisions() {
	m.OrderNumberCollisions.Inc()
}

// IncrementStatusUpdates records a status change
func (m *Metrics) IncrementStatusUpdates(status string) {
	m.StatusUpdates.WithLabelValues(status).Inc()
}

// ObserveSubmitOrder records the duration of an order submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmitOrder(start time.Time) {
	m.SubmitOrderDuration.Observe(time.Since(start).Seconds())
}

// ConnectionOpened increments the connection gauge
func (m *Metrics) ConnectionOpened() {
	m.RealtimeConnections.Inc()
}

// ConnectionClosed decrements the connection gauge
func (m *Metrics) ConnectionClosed() {
	m.RealtimeConnections.Dec()
}

// IncrementMessagesDropped records a skipped outbound message
func (m *Metrics) IncrementMessagesDropped() {
	m.RealtimeMessagesDropped.Inc()
}

// AddOrdersPruned records orders removed by housekeeping
func (m *Metrics) AddOrdersPruned(n int64) {
	m.OrdersPruned.Add(float64(n))
}
