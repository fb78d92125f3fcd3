package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	OrderTransitions *prometheus.CounterVec
	BookingChanges   *prometheus.CounterVec
	PayoutRequests   prometheus.Counter
	WSConnections    prometheus.Gauge
	NotificationsOut prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tgt_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tgt_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		OrderTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tgt_order_transitions_total",
			Help: "Order status transitions.",
		}, []string{"from", "to"}),
		BookingChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tgt_booking_changes_total",
			Help: "Booking status changes.",
		}, []string{"status"}),
		PayoutRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "tgt_payout_requests_total",
			Help: "Wallet payout requests.",
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tgt_ws_connections",
			Help: "Open websocket connections.",
		}),
		NotificationsOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "tgt_notifications_sent_total",
			Help: "Notifications created.",
		}),
	}
}
