// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media holds the shared playback domain model: sources, tracks,
// states and lifecycle enums consumed by every controller.
package media

// PlaybackState is the client-visible playback state machine.
// It is intentionally coarse-grained and stable across backends.
type PlaybackState string

const (
	StateUninitialized PlaybackState = "UNINITIALIZED"
	StateInitializing  PlaybackState = "INITIALIZING"
	StateReady         PlaybackState = "READY"
	StatePlaying       PlaybackState = "PLAYING"
	StatePaused        PlaybackState = "PAUSED"
	StateBuffering     PlaybackState = "BUFFERING"
	StateCompleted     PlaybackState = "COMPLETED"
	StateError         PlaybackState = "ERROR"
	StateDisposed      PlaybackState = "DISPOSED"
)

// Terminal reports whether no further playback state can follow.
func (s PlaybackState) Terminal() bool {
	return s == StateDisposed
}

// active states are the ones playback can transition between freely.
func (s PlaybackState) active() bool {
	return s == StatePlaying || s == StatePaused || s == StateBuffering
}

// CanTransition reports whether the playback state machine permits
// moving from one state to another. Error is reachable from any
// non-terminal state; Disposed is reachable from any state.
func CanTransition(from, to PlaybackState) bool {
	if from == to {
		return false
	}
	if to == StateDisposed {
		return true
	}
	if from == StateDisposed {
		return false
	}
	if to == StateError {
		return true
	}
	switch from {
	case StateUninitialized:
		return to == StateInitializing
	case StateInitializing:
		return to == StateReady
	case StateReady:
		return to.active()
	case StatePlaying, StatePaused, StateBuffering:
		if to.active() {
			return true
		}
		// Completion requires playback to have been running.
		return to == StateCompleted && (from == StatePlaying || from == StateBuffering)
	case StateCompleted:
		// Replay or loop restart.
		return to == StatePlaying || to == StateReady
	case StateError:
		// Recovery re-enters the active set.
		return to.active() || to == StateReady
	default:
		return false
	}
}

// Lifecycle is the session lifecycle, distinct from the playback state:
// it tracks construction and teardown, not what the decoder is doing.
type Lifecycle string

const (
	LifecycleUninitialized Lifecycle = "UNINITIALIZED"
	LifecycleInitializing  Lifecycle = "INITIALIZING"
	LifecycleReady         Lifecycle = "READY"
	LifecycleDisposed      Lifecycle = "DISPOSED"
)

// CastState describes the session's casting connection.
type CastState string

const (
	CastDisconnected CastState = "DISCONNECTED"
	CastConnecting   CastState = "CONNECTING"
	CastConnected    CastState = "CONNECTED"
)

// LoopMode controls behaviour when playback reaches the end of the media.
type LoopMode string

const (
	LoopOff LoopMode = "OFF"
	LoopOne LoopMode = "ONE"
	LoopAll LoopMode = "ALL"
)

// BufferingReason distinguishes why playback stalled.
type BufferingReason string

const (
	BufferingInitial BufferingReason = "INITIAL"
	BufferingSeek    BufferingReason = "SEEK"
	BufferingNetwork BufferingReason = "NETWORK"
)

// RenderMode selects how subtitles are presented.
type RenderMode string

const (
	// RenderNative lets the backend composite subtitles into its output.
	RenderNative RenderMode = "NATIVE"
	// RenderCues streams timed cues to the application for overlay rendering.
	RenderCues RenderMode = "CUES"
)
