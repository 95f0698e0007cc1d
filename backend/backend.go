// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package backend defines the contracts the playback core consumes:
// the media engine, the subtitle loader, the casting provider and the
// network recovery executor. The core never branches on backend
// identity; every adapter satisfies these interfaces and everything
// else flows through normalized events.
package backend

import (
	"context"
	"time"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

// NotificationKind tags a raw backend signal.
type NotificationKind string

const (
	NotifyState         NotificationKind = "state"
	NotifyPosition      NotificationKind = "position"
	NotifyDuration      NotificationKind = "duration"
	NotifyBuffered      NotificationKind = "buffered"
	NotifyBufferingOn   NotificationKind = "buffering_on"
	NotifyBufferingOff  NotificationKind = "buffering_off"
	NotifyCompleted     NotificationKind = "completed"
	NotifyVideoSize     NotificationKind = "video_size"
	NotifyTracks        NotificationKind = "tracks"
	NotifyQualities     NotificationKind = "qualities"
	NotifyQualityActive NotificationKind = "quality_active"
	NotifyBandwidth     NotificationKind = "bandwidth"
	NotifyError         NotificationKind = "error"
	NotifyRecovered     NotificationKind = "recovered"
	NotifyCue           NotificationKind = "cue"
	NotifyCastState     NotificationKind = "cast_state"
	NotifyVolume        NotificationKind = "volume"
	NotifySpeed         NotificationKind = "speed"
)

// Notification is one raw, backend-native signal. Backends fire these at
// arbitrary granularity and frequency from arbitrary goroutines; the
// normalizer is the serialization boundary.
type Notification struct {
	Kind NotificationKind

	State           media.PlaybackState
	Position        time.Duration
	Duration        time.Duration
	Buffered        time.Duration
	Volume          float64
	Speed           float64
	Size            media.VideoSize
	TrackKind       media.TrackKind
	Tracks          []media.Track
	QualityID       string
	BandwidthBPS    int64
	BufferingReason media.BufferingReason
	Cue             media.Cue
	CastState       media.CastState
	CastDevice      *media.CastDevice

	// Error signals carry the class so the normalizer can route
	// network failures to the resilience controller and surface
	// everything else verbatim.
	ErrClass event.ErrorClass
	Err      string
}

// Capabilities describes what the active backend supports. Capability
// gaps are surfaced here ahead of time so callers can avoid triggering
// no-op operations.
type Capabilities struct {
	// AdaptiveStreaming enables the synthetic auto quality entry.
	AdaptiveStreaming bool
	// MinBitrate reports whether minimum-bitrate constraints are honored.
	MinBitrate bool
	// CueEvents reports whether the backend can stream subtitle cues
	// instead of rendering them natively.
	CueEvents bool
}

// Engine is the native media engine adapter. All calls are asynchronous:
// completion or failure is delivered through Notifications, never by
// blocking the caller.
type Engine interface {
	Load(ctx context.Context, src media.Source, at time.Duration) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
	SetVolume(ctx context.Context, v float64) error
	SetSpeed(ctx context.Context, s float64) error

	// SelectTrack with an empty backendID disables the kind.
	SelectTrack(ctx context.Context, kind media.TrackKind, backendID string) error
	// SelectQuality with media.AutoQualityID re-enables adaptive selection.
	SelectQuality(ctx context.Context, id string) error
	// SetMaxBitrate restricts adaptive selection; zero removes the cap.
	SetMaxBitrate(ctx context.Context, bps int64) error
	// SetMinBitrate is honored only when Capabilities().MinBitrate is true.
	SetMinBitrate(ctx context.Context, bps int64) error
	// SetCueEvents toggles cue delivery for the active text track.
	SetCueEvents(ctx context.Context, enabled bool) error

	Capabilities() Capabilities
	Notifications() <-chan Notification
	Close() error
}

// RecoveryExecutor performs the backend-specific reload sequence after a
// network-class error. Success is confirmed asynchronously by the backend
// (a recovered/state notification); the returned error only reports that
// the sequence could not be started or completed.
type RecoveryExecutor interface {
	Recover(ctx context.Context, src media.Source, at time.Duration, resume bool) error
}

// SubtitleLoader fetches and parses an external subtitle source into cues.
// Failures are load errors, never playback errors.
type SubtitleLoader interface {
	Load(ctx context.Context, src media.Source, formatHint string) ([]media.Cue, error)
}

// CastProvider reports device discovery and connection transitions. The
// core only tracks connection state; discovery stays with the provider.
type CastProvider interface {
	Devices(ctx context.Context) ([]media.CastDevice, error)
	// Changes delivers connection-state transitions until the provider
	// is closed.
	Changes() <-chan Notification
	Close() error
}
