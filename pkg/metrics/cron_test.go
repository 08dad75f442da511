package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	finished := time.Date(2026, 5, 4, 3, 0, 0, 0, time.UTC)

	m.ObserveRun("legal-document-lifecycle", nil, 200*time.Millisecond, 4, finished)
	m.ObserveRun("legal-document-lifecycle", errors.New("db down"), time.Second, 1, finished.Add(time.Hour))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, outcome := range []string{OutcomeSuccess, OutcomeFailure} {
		got, err := fetchCounterValue(mfs, "producehub_cron_job_runs_total", "outcome", outcome)
		if err != nil {
			t.Fatalf("fetch %s: %v", outcome, err)
		}
		if got != 1 {
			t.Fatalf("expected one %s run, got %f", outcome, got)
		}
	}

	if got, err := fetchCounterValue(mfs, "producehub_cron_job_records_affected_total", "job", "legal-document-lifecycle"); err != nil || got != 5 {
		t.Fatalf("expected 5 affected records, got %f (%v)", got, err)
	}

	gauge := findMetricFamily(mfs, "producehub_cron_job_last_success_timestamp_seconds")
	if gauge == nil || len(gauge.GetMetric()) != 1 {
		t.Fatalf("expected last success gauge")
	}
	if got := gauge.GetMetric()[0].GetGauge().GetValue(); got != float64(finished.Unix()) {
		t.Fatalf("failed run must not move last success: got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
