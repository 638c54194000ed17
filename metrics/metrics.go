package metrics

import (
	// Go Internal Packages
	"net/http"

	// Local Packages
	reconcile "enrollpay/services/reconcile"

	// External Packages
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/plugin/kprom"
)

// Metrics owns the registry served on /metrics.
type Metrics struct {
	Registry      *prometheus.Registry
	namespace     string
	outcomes      *prometheus.CounterVec
	attempts      prometheus.Histogram
	notifications *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		Registry:  prometheus.NewRegistry(),
		namespace: namespace,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Finished reconciliations by terminal state and reason.",
		}, []string{"state", "reason"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_attempts",
			Help:      "Store polls needed to reach a terminal state.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Confirmation dispatches by result.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(m.outcomes, m.attempts, m.notifications)
	return m
}

func (m *Metrics) ObserveOutcome(state reconcile.State, reason string, attempts int) {
	m.outcomes.WithLabelValues(string(state), reason).Inc()
	m.attempts.Observe(float64(attempts))
}

func (m *Metrics) ObserveNotification(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(result).Inc()
}

// KafkaHooks returns franz-go hooks that register into the same registry.
func (m *Metrics) KafkaHooks(client string) *kprom.Metrics {
	return kprom.NewMetrics(m.namespace+"_"+client, kprom.Registry(m.Registry))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
