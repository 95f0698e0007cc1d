// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playcore/backend/backendtest"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

// mockClock collects timers and fires them on demand.
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	deadline time.Time
	f        func()
	stopped  bool
}

func (t *mockTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func newMockClock() *mockClock { return &mockClock{now: time.Now()} }

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires expired timers synchronously.
func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*mockTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// Pending reports the number of armed timers.
func (c *mockClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type sink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *sink) emit(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sink) ofType(t event.Type) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestController(t *testing.T, maxRetries int, rec *backendtest.Recovery) (*Controller, *mockClock, *sink) {
	t.Helper()
	clock := newMockClock()
	s := &sink{}
	c := NewController("sess-test", media.Source{URI: "http://example/stream.m3u8"}, rec,
		Config{MaxRetries: maxRetries, InitialDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second},
		s.emit, WithClock(clock))
	return c, clock, s
}

func TestRetryBudgetExhaustion(t *testing.T) {
	const maxRetries = 3
	rec := &backendtest.Recovery{Errs: []error{
		errors.New("net down"), errors.New("net down"), errors.New("net down"),
	}}
	c, clock, s := newTestController(t, maxRetries, rec)

	// First network error starts the episode; each failed recovery
	// attempt surfaces as the next error.
	c.OnNetworkError(10*time.Second, true, "stream stalled")
	for i := 0; i < maxRetries; i++ {
		clock.Advance(time.Minute)
	}

	// Exactly N attempts, then a single terminal failure.
	assert.Len(t, rec.Calls(), maxRetries)
	assert.Equal(t, StateFailed, c.State())
	require.Len(t, s.ofType(event.TypeRecoveryFailed), 1)
	assert.Len(t, s.ofType(event.TypeRetrying), maxRetries)

	// No further automatic attempts are scheduled.
	clock.Advance(time.Hour)
	assert.Len(t, rec.Calls(), maxRetries)
}

func TestRecoveryOnFirstAttempt(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, clock, s := newTestController(t, 3, rec)

	c.OnNetworkError(42*time.Second, true, "stream stalled")
	require.Equal(t, StateRetrying, c.State())
	clock.Advance(time.Second)

	// Recovery sequence ran with the saved position and resume flag.
	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 42*time.Second, calls[0].At)
	assert.True(t, calls[0].Resume)

	// Backend confirms playback resumed.
	c.OnRecovered()
	assert.Equal(t, StateStable, c.State())
	assert.Equal(t, 0, c.Attempt())

	recovered := s.ofType(event.TypeRecovered)
	require.Len(t, recovered, 1)
	assert.Equal(t, 1, recovered[0].RetriesUsed)
}

func TestFollowUpErrorsKeepOriginalPosition(t *testing.T) {
	rec := &backendtest.Recovery{Errs: []error{errors.New("still down")}}
	c, clock, _ := newTestController(t, 3, rec)

	c.OnNetworkError(30*time.Second, true, "first")
	clock.Advance(time.Second) // attempt 1 fails
	clock.Advance(time.Minute) // attempt 2

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 30*time.Second, calls[1].At)
	assert.True(t, calls[1].Resume)
}

func TestManualRetryDoesNotConsumeBudget(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, _, _ := newTestController(t, 3, rec)

	c.OnNetworkError(5*time.Second, false, "stalled")
	before := c.Attempt()

	require.NoError(t, c.RetryNow())
	assert.Equal(t, before, c.Attempt())
	assert.Len(t, rec.Calls(), 1)
}

func TestManualRetryAvailableAfterFailed(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, clock, _ := newTestController(t, 0, rec) // zero budget: first error fails terminally

	c.OnNetworkError(0, false, "stalled")
	require.Equal(t, StateFailed, c.State())
	clock.Advance(time.Hour)
	assert.Empty(t, rec.Calls())

	// Manual retry still works and can recover the session.
	require.NoError(t, c.RetryNow())
	assert.Len(t, rec.Calls(), 1)
	c.OnRecovered()
	assert.Equal(t, StateStable, c.State())
}

func TestDisposeCancelsPendingRetry(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, clock, _ := newTestController(t, 3, rec)

	c.OnNetworkError(0, true, "stalled")
	require.Equal(t, 1, clock.Pending())

	c.Dispose()
	assert.Equal(t, 0, clock.Pending())
	clock.Advance(time.Hour)
	assert.Empty(t, rec.Calls())

	assert.ErrorIs(t, c.RetryNow(), ErrDisposed)
}

func TestResetSupersedesPendingRetry(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, clock, _ := newTestController(t, 3, rec)

	c.OnNetworkError(0, true, "stalled")
	require.Equal(t, StateRetrying, c.State())

	c.Reset(media.Source{URI: "http://example/next.m3u8"})
	assert.Equal(t, StateStable, c.State())
	assert.Equal(t, 0, c.Attempt())
	clock.Advance(time.Hour)
	assert.Empty(t, rec.Calls())
}

func TestBufferingIsNotAnError(t *testing.T) {
	rec := &backendtest.Recovery{}
	c, _, s := newTestController(t, 3, rec)

	c.OnBuffering()
	assert.Equal(t, StateBuffering, c.State())
	c.OnStable()
	assert.Equal(t, StateStable, c.State())
	assert.Empty(t, s.ofType(event.TypeNetworkError))
	assert.Empty(t, rec.Calls())
}

func TestBackoffDelaysGrow(t *testing.T) {
	rec := &backendtest.Recovery{Errs: []error{
		errors.New("down"), errors.New("down"),
	}}
	c, clock, s := newTestController(t, 5, rec)

	c.OnNetworkError(0, true, "stalled")
	clock.Advance(time.Minute)
	clock.Advance(time.Minute)

	scheduled := s.ofType(event.TypeRetryScheduled)
	require.GreaterOrEqual(t, len(scheduled), 2)
	assert.Greater(t, scheduled[1].Delay, time.Duration(0))
}
