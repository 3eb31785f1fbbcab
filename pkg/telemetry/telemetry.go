// Package telemetry exposes the daemon's own operational counters over
// Prometheus. These are about vigil itself, not the monitored endpoints.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal counts completed probe outcomes by message code.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "probes_total",
		Help:      "Completed endpoint probes by outcome message.",
	}, []string{"message"})

	// TransitionsTotal counts lifecycle transitions by direction.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "transitions_total",
		Help:      "Incident state transitions.",
	}, []string{"direction"})

	// NotificationsTotal counts alert deliveries by channel type and status.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "notifications_total",
		Help:      "Alert channel deliveries.",
	}, []string{"channel", "status"})

	// CyclesTotal counts completed monitoring cycles.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "cycles_total",
		Help:      "Completed monitoring cycles.",
	})
)

// Transition direction labels.
const (
	DirectionOpened   = "opened"
	DirectionResolved = "resolved"
)

// Delivery status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
