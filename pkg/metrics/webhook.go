package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records processing outcomes for inbound provider events.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	events     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of webhook event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate_events_total",
		Help: "Webhook deliveries skipped as already processed.",
	}, []string{"event_type"})
	reg.MustRegister(duration, events, duplicates)
	return &WebhookMetrics{
		duration:   duration,
		events:     events,
		duplicates: duplicates,
	}
}

// ObserveDuration records the processing duration for the event type.
func (m *WebhookMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncProcessed increments the outcome counter for the event type.
func (m *WebhookMetrics) IncProcessed(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncDuplicate counts a delivery skipped by the dedup ledger.
func (m *WebhookMetrics) IncDuplicate(eventType string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
