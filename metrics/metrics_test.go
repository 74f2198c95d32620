package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOrdersSubmitted()
	m.IncrementOrdersSubmitted()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OrdersSubmitted))

	m.IncrementStatusUpdates("ready")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatusUpdates.WithLabelValues("ready")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StatusUpdates.WithLabelValues("served")))

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RealtimeConnections))

	m.AddOrdersPruned(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.OrdersPruned))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
