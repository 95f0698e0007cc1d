// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience implements the network recovery state machine:
// retry scheduling with exponential backoff, a bounded automatic-retry
// budget and an always-available manual retry.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/internal/metrics"
	"github.com/ManuGH/playcore/media"
)

// State is the recovery state machine.
type State string

const (
	StateStable        State = "STABLE"
	StateBuffering     State = "BUFFERING"
	StateErrorDetected State = "ERROR_DETECTED"
	StateRetrying      State = "RETRYING"
	StateRecovered     State = "RECOVERED"
	StateFailed        State = "FAILED"
)

// ErrDisposed means the controller no longer accepts operations.
var ErrDisposed = errors.New("resilience controller disposed")

// Config carries the retry policy frozen at session start.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Option configuration pattern.
type Option func(*Controller)

// WithClock injects a test clock.
func WithClock(c Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// Controller owns retry/backoff policy and recovery sequencing for
// network-class errors. Automatic retries are the only retried
// operation in the system; every other failure class is surfaced
// immediately.
type Controller struct {
	mu     sync.Mutex
	state  State
	cfg    Config
	exec   backend.RecoveryExecutor
	emit   func(event.Event)
	clock  Clock
	logger zerolog.Logger

	src        media.Source
	attempt    int
	wasPlaying bool
	lastPos    time.Duration
	lastErr    string

	timer    Timer
	bo       *backoff.ExponentialBackOff
	disposed bool
}

// NewController wires a recovery controller for one session.
func NewController(sessionID string, src media.Source, exec backend.RecoveryExecutor, cfg Config, emit func(event.Event), opts ...Option) *Controller {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = 15 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialDelay
	bo.MaxInterval = cfg.MaxDelay

	c := &Controller{
		state:  StateStable,
		cfg:    cfg,
		exec:   exec,
		emit:   emit,
		clock:  realClock{},
		logger: log.WithSession("resilience", sessionID),
		src:    src,
		bo:     bo,
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.SetResilienceState(string(c.state))
	return c
}

// State returns the current recovery state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns the consumed automatic-retry count.
func (c *Controller) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// OnBuffering notes a stall; buffering is not an error by itself.
func (c *Controller) OnBuffering() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStable {
		c.transitionTo(StateBuffering)
	}
}

// OnStable notes playback running normally again after a stall.
func (c *Controller) OnStable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateBuffering {
		c.transitionTo(StateStable)
	}
}

// OnNetworkError routes a network-class backend error into the state
// machine. The first error of an episode captures whether playback was
// active and the last known position; follow-up errors (failed recovery
// attempts) keep the originals.
func (c *Controller) OnNetworkError(pos time.Duration, wasPlaying bool, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.state == StateFailed {
		return
	}

	if c.state == StateStable || c.state == StateBuffering || c.state == StateRecovered {
		c.wasPlaying = wasPlaying
		c.lastPos = pos
		c.transitionTo(StateErrorDetected)
	}
	c.lastErr = msg
	c.scheduleLocked()
}

// scheduleLocked either schedules the next automatic attempt or gives
// up. Caller must hold the lock.
func (c *Controller) scheduleLocked() {
	if c.attempt >= c.cfg.MaxRetries {
		c.transitionTo(StateFailed)
		metrics.RecordRetryOutcome("failed")
		c.emit(event.RecoveryFailed(c.attempt, c.lastErr))
		return
	}

	c.stopTimerLocked() // a new error supersedes any pending attempt
	c.attempt++
	delay := c.bo.NextBackOff()
	c.transitionTo(StateRetrying)
	c.emit(event.RetryScheduled(c.attempt, delay))

	attempt := c.attempt
	c.timer = c.clock.AfterFunc(delay, func() { c.fire(attempt) })
}

// fire executes one scheduled recovery attempt. It never runs after
// disposal: Dispose stops the timer and the disposed flag closes the
// race with an already-expired timer.
func (c *Controller) fire(attempt int) {
	c.mu.Lock()
	if c.disposed || c.state != StateRetrying || attempt != c.attempt {
		c.mu.Unlock()
		return
	}
	src, pos, resume := c.src, c.lastPos, c.wasPlaying
	c.emit(event.Retrying(attempt))
	c.mu.Unlock()

	metrics.RecordRetryAttempt("auto")
	c.logger.Info().
		Int(log.FieldAttempt, attempt).
		Dur("position", pos).
		Bool("resume", resume).
		Msg("recovery attempt")

	if err := c.exec.Recover(context.Background(), src, pos, resume); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed {
			return
		}
		c.lastErr = err.Error()
		c.emit(event.NetworkError(err.Error()))
		c.scheduleLocked()
	}
	// Success is confirmed asynchronously by the backend; OnRecovered
	// completes the episode.
}

// OnRecovered completes a recovery episode after the backend confirmed
// playback resumed. The retry count resets exactly here.
func (c *Controller) OnRecovered() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.state != StateRetrying && c.state != StateErrorDetected {
		return
	}
	c.stopTimerLocked()

	used := c.attempt
	c.transitionTo(StateRecovered)
	metrics.RecordRetryOutcome("recovered")
	c.emit(event.Recovered(used))

	c.attempt = 0
	c.bo.Reset()
	c.transitionTo(StateStable)
}

// RetryNow is the manual retry operation. It is available in every
// state including Failed, supersedes any pending automatic attempt and
// never consumes the automatic-retry budget.
func (c *Controller) RetryNow() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.stopTimerLocked()
	if c.state != StateRetrying {
		c.transitionTo(StateRetrying)
	}
	src, pos, resume, attempt := c.src, c.lastPos, c.wasPlaying, c.attempt
	c.emit(event.Retrying(attempt))
	c.mu.Unlock()

	metrics.RecordRetryAttempt("manual")
	c.logger.Info().Int(log.FieldAttempt, attempt).Msg("manual retry")

	if err := c.exec.Recover(context.Background(), src, pos, resume); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.disposed {
			return err
		}
		c.lastErr = err.Error()
		c.emit(event.NetworkError(err.Error()))
		if c.attempt >= c.cfg.MaxRetries {
			// Budget already spent: stay Failed without emitting a
			// second terminal event per manual attempt.
			c.transitionTo(StateFailed)
		} else {
			c.scheduleLocked()
		}
		return err
	}
	return nil
}

// Reset re-arms the controller for a fresh source load, superseding any
// pending retry.
func (c *Controller) Reset(src media.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.stopTimerLocked()
	c.src = src
	c.attempt = 0
	c.lastErr = ""
	c.bo.Reset()
	c.transitionTo(StateStable)
}

// Dispose cancels any pending retry. No retry callback fires afterwards.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.stopTimerLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// transitionTo records a state change. Caller must hold the lock.
func (c *Controller) transitionTo(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug().
		Str(log.FieldOldState, string(c.state)).
		Str(log.FieldNewState, string(next)).
		Msg("resilience transition")
	c.state = next
	metrics.SetResilienceState(string(next))
}
