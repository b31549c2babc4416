package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client-side request metrics
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

// NewMetrics registers the client metrics with reg.
// Pass prometheus.NewRegistry() in tests to keep them isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maiai_client_requests_total",
			Help: "Total number of backend requests by endpoint, method and status",
		}, []string{"endpoint", "method", "status"}),

		// Chat inference dominates the upper buckets
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maiai_client_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"endpoint", "method"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maiai_client_errors_total",
			Help: "Total number of failed backend requests by kind",
		}, []string{"endpoint", "kind"}), // kind: transport, status, decode
	}
}

func (m *Metrics) observe(endpoint, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(endpoint, method, label).Inc()
	m.Latency.WithLabelValues(endpoint, method).Observe(took.Seconds())
}

func (m *Metrics) failure(endpoint, kind string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(endpoint, kind).Inc()
}
