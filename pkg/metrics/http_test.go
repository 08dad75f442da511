package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/orders", 200, 20*time.Millisecond)
	m.Observe("GET", "/api/v1/orders", 200, 30*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/orders")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
}

func TestOutboxMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncDispatched("store_approved")
	m.IncFailed("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "outbox_events_dispatched_total", "event_type", "store_approved"); got != 1 {
		t.Fatalf("expected 1 dispatched, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "outbox_events_failed_total", "event_type", "unknown"); got != 1 {
		t.Fatalf("expected 1 failed, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var h *HTTPMetrics
	h.Observe("GET", "/", 200, time.Millisecond)
	NewOutboxMetrics(nil).IncDispatched("x")
	NewCronJobMetrics(nil).ObserveRun("x", nil, time.Millisecond, 1, time.Now())
}
