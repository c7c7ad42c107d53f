package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the various metrics used for monitoring the application.
// It includes counters and histograms for calls made to the upstream
// employee API and for requests served by the facade.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	EmployeesFetched prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with the provided Registerer.
//
// Parameters:
//   - reg: A prometheus.Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		UpstreamRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "iris_upstream_requests_total",
			Help: "Total calls made to the upstream employee API.",
		}, []string{"operation", "status"}), // status: 'success', 'not_found', 'failure'
		UpstreamDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_upstream_request_duration_seconds",
			Help:    "Duration of calls made to the upstream employee API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		EmployeesFetched: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "iris_employees_fetched_total",
			Help: "Total number of employee records decoded from upstream responses.",
		}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "iris_http_requests_total",
			Help: "Total HTTP requests served by the facade.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the facade.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	return metrics
}
