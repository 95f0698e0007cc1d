// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playcore_sessions_active",
		Help: "Number of live playback sessions",
	})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_state_transitions_total",
		Help: "Playback state transitions by target state",
	}, []string{"state"})

	invalidTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcore_invalid_transitions_total",
		Help: "Playback state transitions rejected by the state machine",
	})

	snapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcore_snapshots_published_total",
		Help: "Immutable snapshots fanned out to subscribers",
	})

	subscriberDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcore_subscriber_drops_total",
		Help: "Snapshots dropped because a subscriber buffer was full",
	})
)

// SessionOpened increments the active-session gauge.
func SessionOpened() { sessionsActive.Inc() }

// SessionClosed decrements the active-session gauge.
func SessionClosed() { sessionsActive.Dec() }

// RecordStateTransition counts an applied playback state change.
func RecordStateTransition(state string) { stateTransitions.WithLabelValues(state).Inc() }

// RecordInvalidTransition counts a rejected playback state change.
func RecordInvalidTransition() { invalidTransitions.Inc() }

// RecordSnapshot counts one published snapshot.
func RecordSnapshot() { snapshotsPublished.Inc() }

// RecordSubscriberDrop counts one dropped snapshot delivery.
func RecordSubscriberDrop() { subscriberDrops.Inc() }
