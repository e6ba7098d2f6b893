package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRealtimeMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRealtimeMetrics(reg)

	m.SetConnections("notifications", 3)
	m.IncEvent("notifications", "notification:new")
	m.SetQueueDepth(2)
	m.IncJob("success")
	m.IncEmail("failure")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.connections.WithLabelValues("notifications")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("notifications", "notification:new")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("failure")))
}

func TestRealtimeMetricsNilSafe(t *testing.T) {
	var m *RealtimeMetrics
	assert.NotPanics(t, func() {
		m.SetConnections("chat", 1)
		m.IncEvent("chat", "chat:message")
		m.SetQueueDepth(0)
		m.IncJob("failure")
		m.IncEmail("skipped")
	})
}
