package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics tracks websocket presence and the email digest pipeline.
type RealtimeMetrics struct {
	connections *prometheus.GaugeVec
	events      *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	jobs        *prometheus.CounterVec
	emails      *prometheus.CounterVec
}

// NewRealtimeMetrics registers the realtime metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Live websocket connections per namespace.",
	}, []string{"namespace"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_emitted_total",
		Help: "Events emitted to websocket clients.",
	}, []string{"namespace", "event"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "digest_queue_depth",
		Help: "Pending jobs in the email digest queue.",
	})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_jobs_total",
		Help: "Digest jobs processed, by outcome.",
	}, []string{"outcome"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_emails_total",
		Help: "Digest emails attempted, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(connections, events, queueDepth, jobs, emails)
	return &RealtimeMetrics{
		connections: connections,
		events:      events,
		queueDepth:  queueDepth,
		jobs:        jobs,
		emails:      emails,
	}
}

// SetConnections records the live connection count for a namespace.
func (m *RealtimeMetrics) SetConnections(namespace string, count int) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.WithLabelValues(namespace).Set(float64(count))
}

// IncEvent counts one emitted event.
func (m *RealtimeMetrics) IncEvent(namespace, event string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(namespace, event).Inc()
}

// SetQueueDepth records the pending digest job count.
func (m *RealtimeMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// IncJob counts one processed digest job with the given outcome.
func (m *RealtimeMetrics) IncJob(outcome string) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
}

// IncEmail counts one attempted digest email with the given outcome.
func (m *RealtimeMetrics) IncEmail(outcome string) {
	if m == nil || m.emails == nil {
		return
	}
	m.emails.WithLabelValues(outcome).Inc()
}
