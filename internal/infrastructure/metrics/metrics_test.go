package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.ScansTotal == nil || m.HTTPRequests == nil || m.DBQueries == nil || m.PostingsCreated == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ScansTotal.WithLabelValues("completed").Inc()
	m.EmailsProcessed.WithLabelValues("new").Add(3)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "mailrecon_emails_processed_total" {
			continue
		}
		found = true
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 3 {
			t.Fatalf("expected 3 processed emails, got %v", got)
		}
	}
	if !found {
		t.Fatalf("expected mailrecon_emails_processed_total to be gathered")
	}
}

func TestNewWithRegistererRejectsDuplicates(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = NewWithRegisterer(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()

	_ = NewWithRegisterer(registry)
}
