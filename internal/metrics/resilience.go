// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_retry_attempts_total",
		Help: "Network recovery attempts by trigger",
	}, []string{"trigger"}) // trigger=auto|manual

	retryOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_retry_outcomes_total",
		Help: "Network recovery outcomes",
	}, []string{"outcome"}) // outcome=recovered|failed

	resilienceState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playcore_resilience_state",
		Help: "Current resilience controller state (1 for active state)",
	}, []string{"state"})

	qualitySwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcore_quality_switches_total",
		Help: "Rendition switches by trigger",
	}, []string{"trigger"}) // trigger=auto|manual
)

// RecordRetryAttempt counts a recovery attempt.
func RecordRetryAttempt(trigger string) { retryAttempts.WithLabelValues(trigger).Inc() }

// RecordRetryOutcome counts a terminal recovery outcome.
func RecordRetryOutcome(outcome string) { retryOutcomes.WithLabelValues(outcome).Inc() }

// SetResilienceState marks the given state as active.
func SetResilienceState(state string) {
	resilienceState.Reset()
	resilienceState.WithLabelValues(state).Set(1)
}

// RecordQualitySwitch counts a rendition change.
func RecordQualitySwitch(trigger string) { qualitySwitches.WithLabelValues(trigger).Inc() }
