package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the checkout engine.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
	settled  *prometheus.CounterVec
	polls    prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by payment method.",
	}, []string{"method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout failures by reason.",
	}, []string{"reason"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_settled_total",
		Help: "Settled checkouts by payment method.",
	}, []string{"method"})
	polls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_status_polls_total",
		Help: "Mobile-money gateway status poll calls.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Wall-clock duration of checkout attempts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	reg.MustRegister(attempts, failures, settled, polls, duration)
	return &CheckoutMetrics{
		attempts: attempts,
		failures: failures,
		settled:  settled,
		polls:    polls,
		duration: duration,
	}
}

// IncAttempt counts one checkout attempt for the method.
func (c *CheckoutMetrics) IncAttempt(method string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncFailure counts one checkout failure for the reason.
func (c *CheckoutMetrics) IncFailure(reason string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncSettled counts one settled checkout for the method.
func (c *CheckoutMetrics) IncSettled(method string) {
	if c == nil || c.settled == nil {
		return
	}
	c.settled.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncPoll counts one gateway status poll.
func (c *CheckoutMetrics) IncPoll() {
	if c == nil || c.polls == nil {
		return
	}
	c.polls.Inc()
}

// ObserveDuration records the attempt duration for the method.
func (c *CheckoutMetrics) ObserveDuration(method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
