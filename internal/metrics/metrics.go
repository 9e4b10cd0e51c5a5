// Package metrics declares the Prometheus collectors exported by the arena
// server. Collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event queue
var (
	// EventsDropped counts events lost to a full event queue, by kind.
	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_events_dropped_total",
			Help: "Events dropped because the event queue was full, by kind",
		},
		[]string{"kind"},
	)

	// EventsProcessed counts events applied by the tick loop, by kind.
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_events_processed_total",
			Help: "Events drained and applied by the tick loop, by kind",
		},
		[]string{"kind"},
	)
)

// Sessions
var (
	InputsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_inputs_rejected_total",
			Help: "Input payloads dropped as malformed or out of range",
		},
	)

	Sessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_sessions",
			Help: "Sessions currently held by the tick loop",
		},
	)

	// Reconciled counts sessions removed ("disconnect") or created ("connect")
	// by the reconciliation pass rather than by an event.
	Reconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_reconciled_total",
			Help: "Sessions healed by reconciliation, by direction",
		},
		[]string{"direction"},
	)
)

// Transport
var (
	Connections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_connections",
			Help: "Connections currently registered for outbound delivery",
		},
	)

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_connections_rejected_total",
			Help: "Connection attempts refused, by reason",
		},
		[]string{"reason"},
	)

	InputsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_inputs_throttled_total",
			Help: "Inbound frames discarded by the per-connection rate limiter",
		},
	)
)

// Broadcast
var (
	SnapshotsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_snapshots_sent_total",
			Help: "Snapshot frames queued to connections",
		},
	)

	SnapshotsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_snapshots_dropped_total",
			Help: "Snapshot frames skipped because a connection's outbound queue was full or closed",
		},
	)
)

// Tick loop
var (
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arena_tick_duration_seconds",
			Help:    "Wall time spent running one tick",
			Buckets: []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
		},
	)

	SlowTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_slow_ticks_total",
			Help: "Ticks that took longer than the tick budget",
		},
	)

	Tick = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_tick",
			Help: "Sequence number of the last completed tick",
		},
	)
)
