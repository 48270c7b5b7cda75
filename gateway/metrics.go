package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aggate_connections_active",
		Help: "Number of open WebSocket sessions",
	})

	EnvelopesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggate_envelopes_total",
		Help: "Inbound envelopes by type",
	}, []string{"type"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggate_events_total",
		Help: "Outbound protocol events by type",
	}, []string{"type"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggate_errors_total",
		Help: "Error events sent to clients by code",
	}, []string{"code"})

	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aggate_turn_duration_seconds",
		Help:    "Duration of one user_message turn",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	GuestLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aggate_guest_limit_rejections_total",
		Help: "Guest messages rejected by the quota",
	})
)
