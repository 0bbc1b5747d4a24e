package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout, compensation and webhook outcomes.
type CheckoutMetrics struct {
	attempts      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	compensations *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	reported      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Time spent orchestrating a checkout.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_compensations_total",
		Help: "Compensating actions run after a failed checkout step.",
	}, []string{"step", "result"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment gateway webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	reported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reported_failures_total",
		Help: "Failures forwarded to the reporting sink.",
	}, []string{"event"})
	reg.MustRegister(attempts, duration, compensations, webhookEvents, reported)
	return &CheckoutMetrics{
		attempts:      attempts,
		duration:      duration,
		compensations: compensations,
		webhookEvents: webhookEvents,
		reported:      reported,
	}
}

// ObserveCheckout counts one checkout attempt and records its duration.
func (m *CheckoutMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.attempts.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *CheckoutMetrics) IncCompensation(step string, ok bool) {
	if m == nil || m.compensations == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.compensations.WithLabelValues(normalizeLabel(step), result).Inc()
}

func (m *CheckoutMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncReported(event string) {
	if m == nil || m.reported == nil {
		return
	}
	m.reported.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
