// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"time"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/metrics"
	"github.com/ManuGH/playcore/media"
)

// Reduce advances one snapshot by one event. Pure: the same (value,
// event) pair always yields the same next value, and unknown event
// types return the input unchanged. Invalid playback-state transitions
// are rejected, keeping the state machine authoritative over whatever a
// backend claims.
func Reduce(v Value, ev event.Event) Value {
	switch ev.Type {
	case event.TypeInitialized:
		v = applyState(v, media.StateInitializing)
		v.Lifecycle = media.LifecycleInitializing

	case event.TypeStateChanged:
		if ev.State == media.StateCompleted {
			return reduceCompleted(v)
		}
		v = applyState(v, ev.State)
		if ev.State == media.StateReady && v.Lifecycle == media.LifecycleInitializing {
			v.Lifecycle = media.LifecycleReady
		}

	case event.TypeCompleted:
		return reduceCompleted(v)

	case event.TypePosition:
		v.Position = clampPosition(ev.Position, v.Duration)
		v.CurrentChapter = chapterFor(v.Chapters, v.Position)

	case event.TypeDuration:
		v.Duration = ev.Duration
		v.Position = clampPosition(v.Position, v.Duration)

	case event.TypeBuffered:
		if ev.Buffered >= 0 {
			v.Buffered = ev.Buffered
		}

	case event.TypeVolume:
		v.Volume = ev.Volume

	case event.TypeSpeed:
		v.Speed = ev.Speed

	case event.TypeLoopMode:
		v.Looping = ev.Loop

	case event.TypeVideoSize:
		v.Size = ev.Size

	case event.TypeBufferingStart:
		v = applyState(v, media.StateBuffering)
		v.BufferingReason = ev.BufferingReason
		v.IsNetworkBuffering = ev.BufferingReason == media.BufferingNetwork

	case event.TypeBufferingEnd:
		if v.State == media.StateBuffering {
			v = applyState(v, media.StatePlaying)
		}
		v.BufferingReason = ""
		v.IsNetworkBuffering = false

	case event.TypeTrackList:
		switch ev.Kind {
		case media.TrackAudio:
			v.AudioTracks = ev.Tracks
			v.SelectedAudioTrack = retain(v.SelectedAudioTrack, ev.Tracks)
		case media.TrackSubtitle:
			v.SubtitleTracks = ev.Tracks
			v.SelectedSubtitleTrack = retain(v.SelectedSubtitleTrack, ev.Tracks)
		}

	case event.TypeTrackSelected:
		switch ev.Kind {
		case media.TrackAudio:
			v.SelectedAudioTrack = ev.Track
		case media.TrackSubtitle:
			v.SelectedSubtitleTrack = ev.Track
			if ev.Track == nil {
				v.ActiveCue = nil
			}
		}

	case event.TypeRenderMode:
		v.RenderMode = ev.RenderMode
		if ev.RenderMode == media.RenderNative {
			v.ActiveCue = nil
		}

	case event.TypeSubtitleOffset:
		v.SubtitleOffset = ev.Offset
		v.ActiveCue = nil

	case event.TypeSubtitleCue:
		v.ActiveCue = ev.Cue

	case event.TypeQualityList:
		v.QualityTracks = ev.Tracks
		v.SelectedQualityTrack = retain(v.SelectedQualityTrack, ev.Tracks)

	case event.TypeQualityChanged:
		v.SelectedQualityTrack = ev.Track

	case event.TypeBandwidth:
		v.EstimatedBandwidthBPS = ev.BandwidthBPS

	case event.TypeNetworkError:
		v = applyState(v, media.StateBuffering)
		v.BufferingReason = media.BufferingNetwork
		v.IsNetworkBuffering = true

	case event.TypeRetrying:
		v.NetworkRetryCount = ev.Attempt

	case event.TypeRetryScheduled:
		// Snapshot-neutral: the count moves when the attempt fires.

	case event.TypeRecovered:
		v.NetworkRetryCount = 0
		v.IsNetworkBuffering = false
		v.BufferingReason = ""

	case event.TypeRecoveryFailed:
		v = applyState(v, media.StateError)
		v.HasError = true
		v.ErrorClass = event.ClassNetwork
		v.ErrorMessage = ev.Message
		v.IsNetworkBuffering = false
		v.BufferingReason = ""

	case event.TypeSourceError:
		v = applyState(v, media.StateError)
		v.HasError = true
		v.ErrorClass = event.ClassSource
		v.ErrorMessage = ev.Message

	case event.TypeCastState:
		v.CastState = ev.CastState
		v.CurrentCastDevice = ev.CastDevice

	case event.TypePip:
		v.IsPipActive = ev.Active

	case event.TypeFullscreen:
		v.IsFullscreen = ev.Active

	case event.TypeChapters:
		v.Chapters = ev.Chapters
		v.CurrentChapter = chapterFor(v.Chapters, v.Position)

	case event.TypeChapterChanged:
		v.CurrentChapter = ev.Chapter

	case event.TypePlaylistIndex:
		v.PlaylistIndex = ev.PlaylistIndex

	case event.TypeDisposed:
		v.State = media.StateDisposed
		v.Lifecycle = media.LifecycleDisposed
	}

	return v
}

// reduceCompleted handles end-of-media. Looping one item re-enters
// Playing instead of surfacing Completed; looping a playlist advances
// the index and restarts.
func reduceCompleted(v Value) Value {
	switch {
	case v.Looping == media.LoopOne:
		v.Position = 0
		v.CurrentChapter = chapterFor(v.Chapters, 0)
		return applyState(v, media.StatePlaying)
	case v.Looping == media.LoopAll && v.PlaylistSize > 0:
		v.PlaylistIndex = (v.PlaylistIndex + 1) % v.PlaylistSize
		v.Position = 0
		v.CurrentChapter = chapterFor(v.Chapters, 0)
		return applyState(v, media.StatePlaying)
	default:
		v = applyState(v, media.StateCompleted)
		if v.Duration > 0 {
			v.Position = v.Duration
		}
		return v
	}
}

func applyState(v Value, next media.PlaybackState) Value {
	if v.State == next {
		return v
	}
	if !media.CanTransition(v.State, next) {
		metrics.RecordInvalidTransition()
		return v
	}
	v.State = next
	return v
}

func clampPosition(pos, dur time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if dur > 0 && pos > dur {
		return dur
	}
	return pos
}

func retain(sel *media.Track, list []media.Track) *media.Track {
	if sel == nil {
		return nil
	}
	if t, ok := media.FindTrack(list, sel.ID); ok {
		return &t
	}
	return nil
}

func chapterFor(chapters []media.Chapter, pos time.Duration) *media.Chapter {
	if c, ok := media.ChapterAt(chapters, pos); ok {
		return &c
	}
	return nil
}
