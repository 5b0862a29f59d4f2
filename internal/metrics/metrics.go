package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "oauth_gateway"

// Outcome labels for callbacks and protected checks.
const (
	OutcomeSuccess         = "success"
	OutcomeStateMismatch   = "state_mismatch"
	OutcomeExchangeFailed  = "exchange_failed"
	OutcomeProviderError   = "provider_error"
	OutcomeSessionError    = "session_error"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeAuthenticated   = "authenticated"
	OutcomeUnauthenticated = "unauthenticated"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	Registry *prometheus.Registry

	LoginsIssued     prometheus.Counter
	Callbacks        *prometheus.CounterVec
	ExchangeDuration prometheus.Histogram
	ProtectedChecks  *prometheus.CounterVec
	SessionsCreated  prometheus.Counter
	SessionsRevoked  prometheus.Counter
	ExpiredSwept     *prometheus.CounterVec
}

// New creates the metrics on a private registry so several gateways can
// live in one process (tests, embedding).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		LoginsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_issued_total",
			Help:      "Total number of authorization URLs issued",
		}),
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Total number of provider callbacks by outcome",
		}, []string{"outcome"}),
		ExchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_exchange_duration_seconds",
			Help:      "Latency of the code-for-token exchange round trip",
			Buckets:   prometheus.DefBuckets,
		}),
		ProtectedChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protected_checks_total",
			Help:      "Total number of protected resource checks by result",
		}, []string{"outcome"}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of sessions established",
		}),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Total number of sessions ended by logout",
		}),
		ExpiredSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_entries_swept_total",
			Help:      "Expired pending requests and sessions removed by the janitor",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementLogins() {
	m.LoginsIssued.Inc()
}

func (m *Metrics) ObserveCallback(outcome string) {
	m.Callbacks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveExchange(seconds float64) {
	m.ExchangeDuration.Observe(seconds)
}

func (m *Metrics) ObserveProtectedCheck(outcome string) {
	m.ProtectedChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementSessionsCreated() {
	m.SessionsCreated.Inc()
}

func (m *Metrics) IncrementSessionsRevoked() {
	m.SessionsRevoked.Inc()
}

func (m *Metrics) AddSwept(kind string, n int) {
	if n > 0 {
		m.ExpiredSwept.WithLabelValues(kind).Add(float64(n))
	}
}
