package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wut_relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	joinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wut_relay_joins_total",
			Help: "Total topic joins",
		},
	)

	leavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wut_relay_leaves_total",
			Help: "Total topic leaves",
		},
		[]string{"reason"}, // "left" or "reaped"
	)

	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wut_relay_messages_total",
			Help: "Total messages published",
		},
		[]string{"scope"}, // "topic" or "addressed"
	)

	droppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wut_relay_inbox_dropped_total",
			Help: "Events dropped because an inbox was full",
		},
	)

	membersGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wut_relay_members",
			Help: "Members currently joined across all topics",
		},
	)
)
