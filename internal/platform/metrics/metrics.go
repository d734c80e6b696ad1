package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ResidentsRegistered prometheus.Counter
	ResidentMoves       prometheus.Counter
	DeliveriesCreated   prometheus.Counter
	PickupsConfirmed    prometheus.Counter
	PushSent            prometheus.Counter
	PushFailed          prometheus.Counter
	EndpointsPruned     prometheus.Counter
	RequestLatency      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ResidentsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_residents_registered_total",
			Help: "Total number of residents registered.",
		}),
		ResidentMoves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_resident_moves_total",
			Help: "Total number of resident move operations.",
		}),
		DeliveriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_deliveries_created_total",
			Help: "Total number of deliveries registered.",
		}),
		PickupsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_pickups_confirmed_total",
			Help: "Total number of pickup confirmations.",
		}),
		PushSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_push_sent_total",
			Help: "Total number of push notifications delivered.",
		}),
		PushFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_push_failed_total",
			Help: "Total number of push notification failures.",
		}),
		EndpointsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fatepack_push_endpoints_pruned_total",
			Help: "Total number of expired push endpoints removed.",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fatepack_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	m.RequestLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
}
