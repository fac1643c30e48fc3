package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookpulse_deliveries_total",
			Help: "Total number of delivery attempts by outcome",
		},
		[]string{"tenant_id", "outcome"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookpulse_delivery_duration_seconds",
			Help:    "Delivery attempt duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"tenant_id", "outcome"},
	)

	EndpointDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookpulse_endpoint_delivery_duration_seconds",
			Help:    "Delivery attempt duration per endpoint, sampled",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"tenant_id", "endpoint_id", "outcome"},
	)

	DeliveryCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookpulse_delivery_cycles_total",
			Help: "Total number of delivery cycles by result",
		},
		[]string{"result"},
	)

	MonitorChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookpulse_monitor_checks_total",
			Help: "Total number of monitor checks by status",
		},
		[]string{"monitor_id", "status"},
	)

	MonitorCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookpulse_monitor_check_duration_seconds",
			Help:    "Monitor probe duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"monitor_id", "status"},
	)
)
