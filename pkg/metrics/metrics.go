package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "integration_service"

// Build outcomes recorded by ObserveBuild.
const (
	OutcomeReady  = "ready"
	OutcomeFailed = "failed"
)

// Metrics holds the delivery and provider-build counters. Each collector owns
// its registry so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	consumed  prometheus.Counter
	delivered prometheus.Counter
	failed    prometheus.Counter
	retried   prometheus.Counter
	builds    *prometheus.CounterVec
}

// New returns a zeroed Metrics collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "messages_consumed_total",
			Help:      "Push jobs taken off the queue",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "messages_delivered_total",
			Help:      "Push jobs acknowledged by the provider",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "messages_failed_total",
			Help:      "Push jobs that ended in failure",
		}),
		retried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "send_retries_total",
			Help:      "Provider send attempts that were retried",
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handlers",
			Name:      "provider_builds_total",
			Help:      "Provider constructions by provider, channel and outcome",
		}, []string{"provider", "channel", "outcome"}),
	}
	m.registry.MustRegister(m.consumed, m.delivered, m.failed, m.retried, m.builds)
	return m
}

func (m *Metrics) IncConsumed()  { m.consumed.Inc() }
func (m *Metrics) IncDelivered() { m.delivered.Inc() }
func (m *Metrics) IncFailed()    { m.failed.Inc() }
func (m *Metrics) IncRetried()   { m.retried.Inc() }

// ObserveBuild records one provider build attempt.
func (m *Metrics) ObserveBuild(provider, channel string, ready bool) {
	outcome := OutcomeFailed
	if ready {
		outcome = OutcomeReady
	}
	m.builds.With(prometheus.Labels{
		"provider": provider,
		"channel":  channel,
		"outcome":  outcome,
	}).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collector in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
