package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	RealtimeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "batchboard_realtime_sessions",
			Help: "Open comment subscription sockets",
		},
	)

	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchboard_realtime_events_total",
			Help: "Comment change events fanned out to subscribers",
		},
		[]string{"type"},
	)

	ProfileViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchboard_profile_views_total",
			Help: "Profile views recorded, by path (direct, kafka or worker)",
		},
		[]string{"path"},
	)
)
