package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts dispatcher outcomes per event type.
type OutboxMetrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dispatched_total",
		Help: "Outbox events handled and marked published.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox event handling failures.",
	}, []string{"event_type"})
	reg.MustRegister(dispatched, failed)
	return &OutboxMetrics{dispatched: dispatched, failed: failed}
}

func (m *OutboxMetrics) IncDispatched(eventType string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}
