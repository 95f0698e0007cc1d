// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback is the session core: an immutable snapshot per
// session, a pure reducer advancing it event by event, and the Session
// type that owns the normalizer, the controllers and the single-writer
// dispatch loop.
package playback

import (
	"time"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

// Value is one complete playback snapshot. Values are replaced, never
// mutated; readers may hold one indefinitely. Slices and pointers inside
// a Value are shared between snapshots and must be treated read-only.
type Value struct {
	Lifecycle media.Lifecycle
	State     media.PlaybackState

	Position time.Duration
	Duration time.Duration
	Buffered time.Duration
	Volume   float64
	Speed    float64
	Looping  media.LoopMode
	Size     *media.VideoSize

	AudioTracks    []media.Track
	SubtitleTracks []media.Track
	QualityTracks  []media.Track

	SelectedAudioTrack    *media.Track
	SelectedSubtitleTrack *media.Track
	SelectedQualityTrack  *media.Track

	RenderMode     media.RenderMode
	SubtitleOffset time.Duration
	ActiveCue      *media.Cue

	IsNetworkBuffering    bool
	BufferingReason       media.BufferingReason
	EstimatedBandwidthBPS int64
	NetworkRetryCount     int

	HasError     bool
	ErrorClass   event.ErrorClass
	ErrorMessage string

	IsPipActive  bool
	IsFullscreen bool

	CastState         media.CastState
	CurrentCastDevice *media.CastDevice

	PlaylistIndex int
	PlaylistSize  int

	Chapters       []media.Chapter
	CurrentChapter *media.Chapter
}

// NewValue is the pre-initialization snapshot.
func NewValue() Value {
	return Value{
		Lifecycle:  media.LifecycleUninitialized,
		State:      media.StateUninitialized,
		Volume:     1.0,
		Speed:      1.0,
		Looping:    media.LoopOff,
		RenderMode: media.RenderNative,
		CastState:  media.CastDisconnected,
	}
}
