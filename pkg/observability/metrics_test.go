package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry and become visible after a first observation.
func TestMetricsRegistered(t *testing.T) {
	// Seed every metric so the counter/histogram families appear.
	ClientRequestsTotal.WithLabelValues("chat", "ok").Inc()
	ClientRequestDuration.WithLabelValues("chat").Observe(0.1)
	ProbeRequestsTotal.WithLabelValues("models", "ok").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"vllmctl_client_requests_total":           false,
		"vllmctl_client_request_duration_seconds": false,
		"vllmctl_probe_requests_total":            false,
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %s not found in default registry", name)
		}
	}
}

// TestCounterLabels verifies that label values land on the right series.
func TestCounterLabels(t *testing.T) {
	ProbeRequestsTotal.WithLabelValues("chat_completions", "http_error").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	var found *dto.Metric
	for _, mf := range families {
		if mf.GetName() != "vllmctl_probe_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["endpoint"] == "chat_completions" && labels["outcome"] == "http_error" {
				found = m
			}
		}
	}

	if found == nil {
		t.Fatal("expected series with endpoint=chat_completions, outcome=http_error")
	}
	if found.GetCounter().GetValue() < 1 {
		t.Errorf("expected counter >= 1, got %v", found.GetCounter().GetValue())
	}
}
