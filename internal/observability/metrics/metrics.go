package metrics

import "github.com/prometheus/client_golang/prometheus"

// FunnelMetrics exposes counters/histograms for the lead-capture funnel.
type FunnelMetrics struct {
	submissionsTotal *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	webhookTotal     *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
}

func NewFunnelMetrics(reg prometheus.Registerer) *FunnelMetrics {
	m := &FunnelMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Total form submissions by form type and outcome",
		}, []string{"form_type", "status"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "notify",
			Name:      "dispatch_total",
			Help:      "Total notification dispatches by form type and outcome",
		}, []string{"form_type", "status"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "voiceagent",
			Name:      "webhook_total",
			Help:      "Total voice-agent webhook deliveries by outcome",
		}, []string{"status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "funnel",
			Subsystem: "notify",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of provider email dispatches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.dispatchTotal, m.webhookTotal, m.dispatchLatency)
	return m
}

func (m *FunnelMetrics) ObserveSubmission(formType, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(formType, status).Inc()
}

func (m *FunnelMetrics) ObserveDispatch(formType, status string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(formType, status).Inc()
}

func (m *FunnelMetrics) ObserveWebhook(status string) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(status).Inc()
}

func (m *FunnelMetrics) ObserveDispatchLatency(formType string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(formType).Observe(seconds)
}
