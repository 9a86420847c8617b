package httphandler

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation and outcome label values.
const (
	opIssue  = "issue"
	opVerify = "verify"

	outcomeIssued        = "issued"
	outcomeAlreadyIssued = "already_issued"
	outcomeVerified      = "verified"
	outcomeNotFound      = "not_found"
	outcomeInvalid       = "invalid"
	outcomeError         = "error"
)

// Metrics holds the Prometheus collectors exported by a service.
type Metrics struct {
	operations *prometheus.CounterVec   // credential operations by operation and outcome
	requests   *prometheus.HistogramVec // request latency by method, route and status
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credentialhub_credential_operations_total",
			Help: "Total number of credential operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		requests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credentialhub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) recordOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
