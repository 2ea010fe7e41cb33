// Package metrics exposes the Prometheus instrumentation surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContentCreated counts shared items by content type.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lovance_content_created_total",
		Help: "Shared content items created, by type.",
	}, []string{"type"})

	// PushSent counts APNs deliveries by outcome (sent, failed, dropped).
	PushSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lovance_push_sent_total",
		Help: "Push notifications attempted, by outcome.",
	}, []string{"outcome"})

	// WSConnections tracks currently open realtime connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lovance_ws_connections",
		Help: "Currently open WebSocket connections.",
	})

	// PartnersConnected counts successful pairings.
	PartnersConnected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovance_partners_connected_total",
		Help: "Partner connections established.",
	})

	// DevicesPurged counts push tokens removed by the daily cleanup job.
	DevicesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lovance_devices_purged_total",
		Help: "Stale push devices removed by the cleanup job.",
	})
)
