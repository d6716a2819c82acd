package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFunnelMetricsObserve(t *testing.T) {
	m := NewFunnelMetrics(prometheus.NewRegistry())
	m.ObserveSubmission("rfp_submission", "succeeded")
	m.ObserveDispatch("rfp_submission", "ok")
	m.ObserveWebhook("accepted")
	m.ObserveDispatchLatency("rfp_submission", 0.5)
}

func TestFunnelMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFunnelMetrics(reg)
	m.ObserveSubmission("general_contact", "failed")
}

func TestFunnelMetricsNilSafe(t *testing.T) {
	var m *FunnelMetrics
	m.ObserveSubmission("general_contact", "succeeded")
	m.ObserveDispatch("general_contact", "ok")
	m.ObserveWebhook("rejected")
	m.ObserveDispatchLatency("general_contact", 0.1)
}
