// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_notifications_total",
		Help: "Raw backend notifications received by kind",
	}, []string{"kind"})

	eventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_events_forwarded_total",
		Help: "Canonical events forwarded to the reducer by type",
	}, []string{"type"})

	eventsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_events_deduplicated_total",
		Help: "High-frequency notifications suppressed by the dedup policy",
	}, []string{"kind"}) // kind=position|buffered|bandwidth
)

// RecordNotification counts one raw backend notification.
func RecordNotification(kind string) { notificationsTotal.WithLabelValues(kind).Inc() }

// RecordEventForwarded counts one canonical event handed to the reducer.
func RecordEventForwarded(eventType string) { eventsForwarded.WithLabelValues(eventType).Inc() }

// RecordDeduplicated counts one suppressed notification.
func RecordDeduplicated(kind string) { eventsDeduplicated.WithLabelValues(kind).Inc() }
