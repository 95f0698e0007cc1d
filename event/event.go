// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package event defines the canonical playback event taxonomy. Events are
// immutable tagged facts produced by the normalizer or the controllers and
// consumed only by the reducer.
package event

import (
	"time"

	"github.com/ManuGH/playcore/media"
)

// Type identifies an event variant.
type Type string

const (
	TypeInitialized     Type = "session.initialized"
	TypeStateChanged    Type = "playback.state"
	TypeCompleted       Type = "playback.completed"
	TypePosition        Type = "playback.position"
	TypeDuration        Type = "playback.duration"
	TypeBuffered        Type = "playback.buffered"
	TypeVolume          Type = "playback.volume"
	TypeSpeed           Type = "playback.speed"
	TypeLoopMode        Type = "playback.loop"
	TypeVideoSize       Type = "playback.videosize"
	TypeBufferingStart  Type = "buffering.started"
	TypeBufferingEnd    Type = "buffering.ended"
	TypeTrackList       Type = "tracks.list"
	TypeTrackSelected   Type = "tracks.selected"
	TypeRenderMode      Type = "tracks.rendermode"
	TypeSubtitleOffset  Type = "tracks.subtitleoffset"
	TypeSubtitleCue     Type = "tracks.cue"
	TypeQualityList     Type = "quality.list"
	TypeQualityChanged  Type = "quality.changed"
	TypeBandwidth       Type = "quality.bandwidth"
	TypeNetworkError    Type = "network.error"
	TypeRetryScheduled  Type = "network.retry.scheduled"
	TypeRetrying        Type = "network.retrying"
	TypeRecovered       Type = "network.recovered"
	TypeRecoveryFailed  Type = "network.failed"
	TypeSourceError     Type = "source.error"
	TypeCastState       Type = "cast.state"
	TypeCastDevice      Type = "cast.device"
	TypePip             Type = "view.pip"
	TypeFullscreen      Type = "view.fullscreen"
	TypeChapters        Type = "chapters.list"
	TypeChapterChanged  Type = "chapters.current"
	TypePlaylistIndex   Type = "playlist.index"
	TypeDisposed        Type = "session.disposed"
)

// ErrorClass is the failure taxonomy. Keep these stable: metrics and
// client UX depend on them.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassNetwork    ErrorClass = "network"    // transient, retried locally
	ClassSource     ErrorClass = "source"     // fatal immediately, no retry
	ClassCapability ErrorClass = "capability" // unsupported operation, reported as no-op
	ClassSelection  ErrorClass = "selection"  // stale track/quality ID, state unchanged
)

// Event is one immutable normalized fact. Only the fields relevant to
// the Type are populated; everything else stays zero.
type Event struct {
	Type Type

	// Derived marks events produced by a controller rather than the
	// normalizer. The session routes only non-derived events back into
	// controllers, which keeps the event loop acyclic.
	Derived bool

	State    media.PlaybackState
	Position time.Duration
	Duration time.Duration
	Buffered time.Duration
	Volume   float64
	Speed    float64
	Loop     media.LoopMode
	Size     *media.VideoSize

	Kind   media.TrackKind
	Tracks []media.Track
	Track  *media.Track

	// Quality fields.
	IsAutoSwitch bool
	BandwidthBPS int64

	BufferingReason media.BufferingReason

	// Error / recovery fields.
	Class       ErrorClass
	Message     string
	Attempt     int
	RetriesUsed int
	Delay       time.Duration

	CastState  media.CastState
	CastDevice *media.CastDevice

	// pip/fullscreen toggles.
	Active bool

	Chapters []media.Chapter
	Chapter  *media.Chapter

	PlaylistIndex int
	Offset        time.Duration

	Cue        *media.Cue
	RenderMode media.RenderMode
}

func StateChanged(s media.PlaybackState) Event { return Event{Type: TypeStateChanged, State: s} }
func Completed() Event                         { return Event{Type: TypeCompleted} }
func Position(p time.Duration) Event           { return Event{Type: TypePosition, Position: p} }
func Duration(d time.Duration) Event           { return Event{Type: TypeDuration, Duration: d} }
func Buffered(b time.Duration) Event           { return Event{Type: TypeBuffered, Buffered: b} }
func Volume(v float64) Event                   { return Event{Type: TypeVolume, Volume: v} }
func Speed(s float64) Event                    { return Event{Type: TypeSpeed, Speed: s} }
func Loop(m media.LoopMode) Event              { return Event{Type: TypeLoopMode, Loop: m} }
func VideoSize(s media.VideoSize) Event        { return Event{Type: TypeVideoSize, Size: &s} }

func BufferingStarted(reason media.BufferingReason) Event {
	return Event{Type: TypeBufferingStart, BufferingReason: reason}
}
func BufferingEnded() Event { return Event{Type: TypeBufferingEnd} }

func TrackList(kind media.TrackKind, tracks []media.Track) Event {
	return Event{Type: TypeTrackList, Kind: kind, Tracks: tracks}
}

// TrackSelected carries a nil track when the kind was disabled.
func TrackSelected(kind media.TrackKind, track *media.Track) Event {
	return Event{Type: TypeTrackSelected, Kind: kind, Track: track}
}

func RenderModeChanged(m media.RenderMode) Event {
	return Event{Type: TypeRenderMode, RenderMode: m}
}
func SubtitleOffset(off time.Duration) Event {
	return Event{Type: TypeSubtitleOffset, Offset: off}
}
func SubtitleCue(c media.Cue) Event { return Event{Type: TypeSubtitleCue, Cue: &c} }

func QualityList(tracks []media.Track) Event {
	return Event{Type: TypeQualityList, Kind: media.TrackQuality, Tracks: tracks}
}

func QualityChanged(track media.Track, auto bool) Event {
	return Event{Type: TypeQualityChanged, Kind: media.TrackQuality, Track: &track, IsAutoSwitch: auto}
}

func Bandwidth(bps int64) Event { return Event{Type: TypeBandwidth, BandwidthBPS: bps} }

func NetworkError(msg string) Event {
	return Event{Type: TypeNetworkError, Class: ClassNetwork, Message: msg}
}

func RetryScheduled(attempt int, delay time.Duration) Event {
	return Event{Type: TypeRetryScheduled, Attempt: attempt, Delay: delay}
}

func Retrying(attempt int) Event { return Event{Type: TypeRetrying, Attempt: attempt} }

func Recovered(retriesUsed int) Event {
	return Event{Type: TypeRecovered, RetriesUsed: retriesUsed}
}

func RecoveryFailed(attempts int, msg string) Event {
	return Event{Type: TypeRecoveryFailed, Class: ClassNetwork, Attempt: attempts, Message: msg}
}

func SourceError(msg string) Event {
	return Event{Type: TypeSourceError, Class: ClassSource, Message: msg}
}

func CastStateChanged(s media.CastState, device *media.CastDevice) Event {
	return Event{Type: TypeCastState, CastState: s, CastDevice: device}
}

func PipChanged(active bool) Event        { return Event{Type: TypePip, Active: active} }
func FullscreenChanged(active bool) Event { return Event{Type: TypeFullscreen, Active: active} }

func Chapters(chapters []media.Chapter) Event {
	return Event{Type: TypeChapters, Chapters: chapters}
}

// ChapterChanged carries nil when the position left all chapters.
func ChapterChanged(c *media.Chapter) Event {
	return Event{Type: TypeChapterChanged, Chapter: c}
}

func PlaylistIndex(i int) Event { return Event{Type: TypePlaylistIndex, PlaylistIndex: i} }

func Initialized() Event { return Event{Type: TypeInitialized} }
func Disposed() Event    { return Event{Type: TypeDisposed} }
