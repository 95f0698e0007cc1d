// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/config"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/internal/metrics"
	"github.com/ManuGH/playcore/internal/normalize"
	"github.com/ManuGH/playcore/internal/quality"
	"github.com/ManuGH/playcore/internal/resilience"
	"github.com/ManuGH/playcore/internal/tracks"
	"github.com/ManuGH/playcore/media"
	"github.com/ManuGH/playcore/resume"
)

// ErrDisposed is returned by every command after Dispose.
var ErrDisposed = errors.New("session disposed")

const subscriberBuffer = 16

// Deps are the backend collaborators one session consumes. Engine and
// Recovery are required; the rest are optional.
type Deps struct {
	Engine    backend.Engine
	Recovery  backend.RecoveryExecutor
	Subtitles backend.SubtitleLoader
	Cast      backend.CastProvider
	Store     resume.Store
}

// Option tweaks session construction.
type Option func(*Session)

// WithChapters seeds the chapter list for the loaded source.
func WithChapters(chapters []media.Chapter) Option {
	return func(s *Session) { s.chapters = chapters }
}

// withClock injects a test clock into the resilience controller.
func withClock(c resilience.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session owns one playback instance end to end: the engine adapter,
// the normalizer, the controllers and the dispatch loop. All state
// mutation happens on the loop goroutine; snapshot reads are lock-free.
type Session struct {
	ID string

	src    media.Source
	opts   config.Options
	engine backend.Engine
	cast   backend.CastProvider
	store  resume.Store
	logger zerolog.Logger

	norm     *normalize.Normalizer
	selector *tracks.Selector
	quality  *quality.Controller
	resil    *resilience.Controller

	current atomic.Pointer[Value]

	// Event queue feeding the dispatch loop. Unbounded on purpose:
	// producers (normalizer drain, retry timers, the loop itself) must
	// never block, or controller emissions could deadlock the loop.
	evmu     sync.Mutex
	evq      []event.Event
	evClosed bool
	evc      chan struct{}
	loopDone chan struct{}
	pumpDone chan struct{}
	castDone chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Value
	nextSub int

	disposed    atomic.Bool
	disposeOnce sync.Once

	chapters        []media.Chapter
	clock           resilience.Clock
	lastResumeWrite time.Time
}

// NewSession loads src on the engine and starts the dispatch loop. A
// stored resume point for the same URI is applied as the initial
// position.
func NewSession(ctx context.Context, src media.Source, opts config.Options, deps Deps, sopts ...Option) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Engine == nil || deps.Recovery == nil {
		return nil, errors.New("session requires an engine and a recovery executor")
	}

	s := &Session{
		ID:       uuid.NewString(),
		src:      src,
		opts:     opts,
		engine:   deps.Engine,
		cast:     deps.Cast,
		store:    deps.Store,
		evc:      make(chan struct{}, 1),
		loopDone: make(chan struct{}),
		pumpDone: make(chan struct{}),
		castDone: make(chan struct{}),
		subs:     make(map[int]chan Value),
	}
	s.logger = log.WithSession("session", s.ID)

	for _, o := range sopts {
		o(s)
	}

	initial := NewValue()
	initial.Volume = opts.Volume
	initial.Speed = opts.Speed
	initial.PlaylistSize = opts.PlaylistSize
	initial.Chapters = s.chapters
	s.current.Store(&initial)

	s.selector = tracks.NewSelector(s.ID, tracks.NewRegistry(), deps.Engine, deps.Subtitles, tracks.Config{
		PreferredSubtitleLanguage: opts.PreferredSubtitleLanguage,
		PreferredAudioLanguage:    opts.PreferredAudioLanguage,
		SubtitleAutoSelect:        opts.SubtitleAutoSelect,
	}, s.emitDerived)

	s.quality = quality.NewController(s.ID, deps.Engine, quality.Config{
		MaxBitrateBPS: opts.MaxBitrateBPS,
		MinBitrateBPS: opts.MinBitrateBPS,
	}, s.emitDerived)

	var ropts []resilience.Option
	if s.clock != nil {
		ropts = append(ropts, resilience.WithClock(s.clock))
	}
	s.resil = resilience.NewController(s.ID, src, deps.Recovery, resilience.Config{
		MaxRetries:   opts.MaxRetries,
		InitialDelay: opts.RetryInitialDelay,
		MaxDelay:     opts.RetryMaxDelay,
	}, s.emitDerived, ropts...)

	s.norm = normalize.New(s.ID, normalize.Config{
		PositionThreshold: opts.PositionThreshold,
		BandwidthDeltaBPS: opts.BandwidthDeltaBPS,
		QueueSize:         opts.QueueSize,
	}, s.submit)

	startAt := s.resumePoint(ctx)
	if err := deps.Engine.Load(ctx, src, startAt); err != nil {
		s.norm.Close()
		return nil, err
	}

	go s.loop()
	go s.pumpEngine()
	go s.pumpCast()

	s.submit(event.Initialized())
	if len(s.chapters) > 0 {
		s.emitDerived(event.Chapters(s.chapters))
	}

	metrics.SessionOpened()
	s.logger.Info().Str(log.FieldSourceURI, src.URI).Dur(log.FieldPosition, startAt).Msg("session created")
	return s, nil
}

func (s *Session) resumePoint(ctx context.Context) time.Duration {
	if s.store == nil {
		return 0
	}
	st, err := s.store.Get(ctx, s.src.URI)
	if err != nil {
		s.logger.Warn().Err(err).Msg("resume lookup failed")
		return 0
	}
	if st == nil {
		return 0
	}
	return st.Position
}

// Value returns the current snapshot.
func (s *Session) Value() Value { return *s.current.Load() }

// Source returns the loaded source.
func (s *Session) Source() media.Source { return s.src }

// Subscribe registers a snapshot consumer. The current snapshot is
// delivered first; afterwards one snapshot per applied event, with
// drops under backpressure rather than blocking the dispatch loop.
// Cancel detaches and closes the channel.
func (s *Session) Subscribe() (<-chan Value, func()) {
	ch := make(chan Value, subscriberBuffer)
	ch <- s.Value()

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs == nil {
		// Already disposed: deliver the final snapshot and close.
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.subMu.Unlock()
	}
}

func (s *Session) publish(v Value) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			metrics.RecordSubscriberDrop()
		}
	}
}

// submit enqueues one event for the dispatch loop. Never blocks.
func (s *Session) submit(ev event.Event) {
	s.evmu.Lock()
	if s.evClosed {
		s.evmu.Unlock()
		return
	}
	s.evq = append(s.evq, ev)
	s.evmu.Unlock()
	select {
	case s.evc <- struct{}{}:
	default:
	}
}

func (s *Session) emitDerived(ev event.Event) {
	ev.Derived = true
	s.submit(ev)
}

func (s *Session) loop() {
	defer close(s.loopDone)
	for {
		ev, ok := s.next()
		if !ok {
			return
		}
		s.apply(ev)
	}
}

func (s *Session) next() (event.Event, bool) {
	for {
		s.evmu.Lock()
		if len(s.evq) > 0 {
			ev := s.evq[0]
			s.evq = s.evq[1:]
			s.evmu.Unlock()
			return ev, true
		}
		closed := s.evClosed
		s.evmu.Unlock()
		if closed {
			return event.Event{}, false
		}
		<-s.evc
	}
}

func (s *Session) pumpEngine() {
	defer close(s.pumpDone)
	for n := range s.engine.Notifications() {
		s.norm.Push(n)
	}
}

func (s *Session) pumpCast() {
	defer close(s.castDone)
	if s.cast == nil {
		return
	}
	for n := range s.cast.Changes() {
		s.norm.Push(n)
	}
}

// apply is the single writer. Non-derived events are routed into the
// controllers first; events a controller owns entirely are not reduced
// (the controller answers with derived events carrying the canonical
// payload).
func (s *Session) apply(ev event.Event) {
	if !ev.Derived && s.route(ev) {
		return
	}

	old := s.current.Load()
	next := Reduce(*old, ev)
	if next.State != old.State {
		metrics.RecordStateTransition(string(next.State))
		s.logger.Debug().
			Str(log.FieldOldState, string(old.State)).
			Str(log.FieldNewState, string(next.State)).
			Str(log.FieldEvent, string(ev.Type)).
			Msg("state transition")
	}
	s.current.Store(&next)
	metrics.RecordSnapshot()
	s.publish(next)

	completed := ev.Type == event.TypeCompleted ||
		(ev.Type == event.TypeStateChanged && ev.State == media.StateCompleted)
	if completed && next.State == media.StatePlaying {
		s.restart()
	}
}

// restart rewinds and resumes after a looped completion. The reducer
// already re-entered Playing; this is the matching backend side effect.
func (s *Session) restart() {
	ctx := log.ContextWithSessionID(context.Background(), s.ID)
	if err := s.engine.Seek(ctx, 0); err != nil {
		s.logger.Warn().Err(err).Msg("loop seek failed")
		return
	}
	if err := s.engine.Play(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("loop play failed")
	}
}

// route feeds a normalizer event into the owning controller. Returns
// true when the event is consumed and must not reach the reducer.
func (s *Session) route(ev event.Event) bool {
	ctx := log.ContextWithSessionID(context.Background(), s.ID)

	switch ev.Type {
	case event.TypeTrackList:
		s.selector.OnEmbeddedTracks(ctx, ev.Kind, ev.Tracks)
		return true

	case event.TypeQualityList:
		s.quality.OnBackendQualities(ctx, ev.Tracks)
		return true

	case event.TypeQualityChanged:
		if ev.Track != nil {
			s.quality.OnBackendQualityActive(ev.Track.ID)
		}
		return true

	case event.TypeNetworkError:
		v := s.Value()
		active := v.State == media.StatePlaying || v.State == media.StateBuffering
		s.resil.OnNetworkError(v.Position, active, ev.Message)
		return false

	case event.TypeRecovered:
		s.resil.OnRecovered()
		return false

	case event.TypeBufferingStart:
		s.resil.OnBuffering()
		return false

	case event.TypeBufferingEnd:
		s.resil.OnStable()
		return false

	case event.TypeStateChanged:
		if ev.State == media.StatePlaying || ev.State == media.StatePaused {
			s.resil.OnStable()
		}
		return false

	case event.TypePosition:
		s.selector.OnPosition(ev.Position)
		s.persistResume(ctx, ev.Position)
		return false

	default:
		return false
	}
}

// persistResume throttles durable position writes to one per configured
// interval. The final write happens on dispose.
func (s *Session) persistResume(ctx context.Context, pos time.Duration) {
	if s.store == nil {
		return
	}
	now := time.Now()
	if !s.lastResumeWrite.IsZero() && now.Sub(s.lastResumeWrite) < s.opts.ResumeWriteInterval {
		return
	}
	s.lastResumeWrite = now
	s.writeResume(ctx, pos, s.Value().Duration)
}

func (s *Session) writeResume(ctx context.Context, pos, dur time.Duration) {
	err := s.store.Put(ctx, s.src.URI, &resume.State{
		Position:  pos,
		Duration:  dur,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("resume write failed")
	}
}

// ---- command surface ----

func (s *Session) guard() error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	return nil
}

func (s *Session) Play(ctx context.Context) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Play(ctx)
}

func (s *Session) Pause(ctx context.Context) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Pause(ctx)
}

func (s *Session) Seek(ctx context.Context, pos time.Duration) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Seek(ctx, pos)
}

func (s *Session) SetVolume(ctx context.Context, v float64) error {
	if err := s.guard(); err != nil {
		return err
	}
	if v < 0 || v > 1 {
		return errors.New("volume out of range [0,1]")
	}
	return s.engine.SetVolume(ctx, v)
}

func (s *Session) SetSpeed(ctx context.Context, speed float64) error {
	if err := s.guard(); err != nil {
		return err
	}
	if speed <= 0 {
		return errors.New("speed must be positive")
	}
	return s.engine.SetSpeed(ctx, speed)
}

// SetLooping takes effect in the core only; no backend call is needed
// because completion handling lives in the reducer.
func (s *Session) SetLooping(mode media.LoopMode) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.emitDerived(event.Loop(mode))
	return nil
}

func (s *Session) SetQuality(ctx context.Context, id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.quality.Set(ctx, id)
}

// SetTrack selects a track of the given kind; an empty id disables the
// kind.
func (s *Session) SetTrack(ctx context.Context, kind media.TrackKind, id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.selector.Select(ctx, kind, id)
}

func (s *Session) AddExternalSubtitle(ctx context.Context, src media.Source, formatHint, label, language string) (media.Track, error) {
	if err := s.guard(); err != nil {
		return media.Track{}, err
	}
	return s.selector.AddExternalSubtitle(ctx, src, formatHint, label, language)
}

func (s *Session) SetSubtitleOffset(off time.Duration) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.selector.SetOffset(off)
	return nil
}

func (s *Session) SetRenderMode(ctx context.Context, mode media.RenderMode) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.selector.SetRenderMode(ctx, mode)
}

// MinBitrateSupported reports whether the backend honors minimum-bitrate
// constraints. When false the configured minimum is a no-op.
func (s *Session) MinBitrateSupported() bool { return s.quality.MinBitrateSupported() }

// Retry requests an immediate recovery attempt. Always available and
// never charged against the automatic budget.
func (s *Session) Retry() error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.resil.RetryNow()
}

func (s *Session) SetPictureInPicture(active bool) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.emitDerived(event.PipChanged(active))
	return nil
}

func (s *Session) SetFullscreen(active bool) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.emitDerived(event.FullscreenChanged(active))
	return nil
}

// Dispose tears the session down: cancels pending retries, closes the
// engine, drains the queues, flushes the resume point and closes every
// subscription. Terminal and idempotent; all later commands fail with
// ErrDisposed.
func (s *Session) Dispose(ctx context.Context) error {
	s.disposeOnce.Do(func() {
		s.disposed.Store(true)
		s.resil.Dispose()

		if err := s.engine.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("engine close failed")
		}
		if s.cast != nil {
			if err := s.cast.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("cast provider close failed")
			}
		}
		<-s.pumpDone
		<-s.castDone
		s.norm.Close()

		s.submit(event.Disposed())
		s.evmu.Lock()
		s.evClosed = true
		s.evmu.Unlock()
		select {
		case s.evc <- struct{}{}:
		default:
		}
		<-s.loopDone

		final := s.Value()
		if s.store != nil {
			s.writeResume(ctx, final.Position, final.Duration)
		}

		s.subMu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.subs = nil
		s.subMu.Unlock()

		metrics.SessionClosed()
		s.logger.Info().Str(log.FieldSourceURI, s.src.URI).Msg("session disposed")
	})
	return nil
}
