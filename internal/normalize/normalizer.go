// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package normalize is the serialization boundary between raw backend
// notifications and the canonical event stream. Backends push from any
// goroutine; one drain goroutine per session maps, deduplicates and
// forwards in arrival order, so everything downstream is single-writer.
package normalize

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/internal/metrics"
	"github.com/ManuGH/playcore/media"
)

// Config tunes the dedup policy for high-frequency notifications.
type Config struct {
	// PositionThreshold suppresses position updates that moved less than
	// this since the last forwarded one.
	PositionThreshold time.Duration
	// BandwidthDeltaBPS suppresses bandwidth samples whose absolute delta
	// from the last forwarded sample is below this.
	BandwidthDeltaBPS int64
	// QueueSize bounds the intake queue. Pushes block once it is full;
	// dropping here would reorder the stream.
	QueueSize int
}

type item struct {
	raw *backend.Notification
	ev  *event.Event
}

// Normalizer owns the ordered intake queue of one session. Push accepts
// raw backend notifications, Emit accepts already-canonical events from
// controllers; both share the same queue so interleaving is preserved.
type Normalizer struct {
	cfg    Config
	sink   func(event.Event)
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
	intake chan item
	done   chan struct{}

	// Drain-goroutine state. Touched only by run, never locked.
	lastPosition time.Duration
	hasPosition  bool
	lastBuffered time.Duration
	lastBW       int64
	hasBW        bool
}

// New starts the drain goroutine. The sink is invoked from that single
// goroutine only, in strict arrival order.
func New(sessionID string, cfg Config, sink func(event.Event)) *Normalizer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	n := &Normalizer{
		cfg:    cfg,
		sink:   sink,
		logger: log.WithSession("normalize", sessionID),
		intake: make(chan item, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Push enqueues one raw backend notification. Safe from any goroutine;
// blocks when the queue is full, drops silently after Close.
func (n *Normalizer) Push(raw backend.Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	n.intake <- item{raw: &raw}
}

// Emit enqueues a controller-produced event on the same queue. The event
// is marked derived so the session does not route it back into a
// controller.
func (n *Normalizer) Emit(ev event.Event) {
	ev.Derived = true
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	n.intake <- item{ev: &ev}
}

// Close stops intake, drains what was already queued and returns once the
// sink has seen the last of it. Idempotent.
func (n *Normalizer) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	close(n.intake)
	n.mu.Unlock()
	<-n.done
}

func (n *Normalizer) run() {
	defer close(n.done)
	for it := range n.intake {
		if it.ev != nil {
			n.forward(*it.ev)
			continue
		}
		n.handle(*it.raw)
	}
}

func (n *Normalizer) forward(ev event.Event) {
	metrics.RecordEventForwarded(string(ev.Type))
	n.sink(ev)
}

func (n *Normalizer) handle(raw backend.Notification) {
	metrics.RecordNotification(string(raw.Kind))

	switch raw.Kind {
	case backend.NotifyState:
		n.forward(event.StateChanged(raw.State))

	case backend.NotifyPosition:
		if n.hasPosition && absDuration(raw.Position-n.lastPosition) < n.cfg.PositionThreshold {
			metrics.RecordDeduplicated("position")
			return
		}
		n.lastPosition = raw.Position
		n.hasPosition = true
		n.forward(event.Position(raw.Position))

	case backend.NotifyDuration:
		n.forward(event.Duration(raw.Duration))

	case backend.NotifyBuffered:
		// Buffered progress is only meaningful going forward; backends
		// re-announce the same high-water mark constantly.
		if raw.Buffered <= n.lastBuffered {
			metrics.RecordDeduplicated("buffered")
			return
		}
		n.lastBuffered = raw.Buffered
		n.forward(event.Buffered(raw.Buffered))

	case backend.NotifyBufferingOn:
		n.forward(event.BufferingStarted(raw.BufferingReason))

	case backend.NotifyBufferingOff:
		n.forward(event.BufferingEnded())

	case backend.NotifyCompleted:
		n.forward(event.Completed())

	case backend.NotifyVideoSize:
		n.forward(event.VideoSize(raw.Size))

	case backend.NotifyVolume:
		n.forward(event.Volume(raw.Volume))

	case backend.NotifySpeed:
		n.forward(event.Speed(raw.Speed))

	case backend.NotifyTracks:
		n.forward(event.TrackList(raw.TrackKind, canonicalTracks(raw.TrackKind, raw.Tracks)))

	case backend.NotifyQualities:
		n.forward(event.QualityList(raw.Tracks))

	case backend.NotifyQualityActive:
		n.forward(event.Event{
			Type:  event.TypeQualityChanged,
			Kind:  media.TrackQuality,
			Track: &media.Track{ID: raw.QualityID, Kind: media.TrackQuality},
		})

	case backend.NotifyBandwidth:
		if n.hasBW && absInt64(raw.BandwidthBPS-n.lastBW) < n.cfg.BandwidthDeltaBPS {
			metrics.RecordDeduplicated("bandwidth")
			return
		}
		n.lastBW = raw.BandwidthBPS
		n.hasBW = true
		n.forward(event.Bandwidth(raw.BandwidthBPS))

	case backend.NotifyError:
		switch raw.ErrClass {
		case event.ClassNetwork:
			n.forward(event.NetworkError(raw.Err))
		default:
			n.forward(event.SourceError(raw.Err))
		}

	case backend.NotifyRecovered:
		// Seek anchors reset with the stream; buffered stays monotonic
		// within one source, but recovery reloads it.
		n.lastBuffered = 0
		n.forward(event.Event{Type: event.TypeRecovered})

	case backend.NotifyCue:
		n.forward(event.SubtitleCue(raw.Cue))

	case backend.NotifyCastState:
		n.forward(event.CastStateChanged(raw.CastState, raw.CastDevice))

	default:
		n.logger.Warn().Str("kind", string(raw.Kind)).Msg("unknown notification kind dropped")
	}
}

// canonicalTracks moves backend-native track IDs into the embedded
// namespace so they never collide with externally registered tracks.
func canonicalTracks(kind media.TrackKind, tracks []media.Track) []media.Track {
	out := make([]media.Track, len(tracks))
	for i, t := range tracks {
		t.Kind = kind
		if !media.IsExternalID(t.ID) {
			t.ID = media.EmbeddedTrackID(kind, t.ID)
		}
		out[i] = t
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
