// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from PlaybackState
		to   PlaybackState
		want bool
	}{
		{"init chain", StateUninitialized, StateInitializing, true},
		{"init to ready", StateInitializing, StateReady, true},
		{"ready to playing", StateReady, StatePlaying, true},
		{"playing to paused", StatePlaying, StatePaused, true},
		{"paused to buffering", StatePaused, StateBuffering, true},
		{"playing to completed", StatePlaying, StateCompleted, true},
		{"buffering to completed", StateBuffering, StateCompleted, true},
		{"paused cannot complete", StatePaused, StateCompleted, false},
		{"ready cannot complete", StateReady, StateCompleted, false},
		{"completed loops to playing", StateCompleted, StatePlaying, true},
		{"error from playing", StatePlaying, StateError, true},
		{"error from uninitialized", StateUninitialized, StateError, true},
		{"error recovers to playing", StateError, StatePlaying, true},
		{"disposed from anywhere", StateCompleted, StateDisposed, true},
		{"disposed is terminal", StateDisposed, StatePlaying, false},
		{"disposed no error", StateDisposed, StateError, false},
		{"no self transition", StatePlaying, StatePlaying, false},
		{"uninitialized cannot play", StateUninitialized, StatePlaying, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StateDisposed.Terminal())
	assert.False(t, StateError.Terminal())
	assert.False(t, StateCompleted.Terminal())
}

func TestTrackIDNamespacing(t *testing.T) {
	emb := EmbeddedTrackID(TrackAudio, "0")
	ext := ExternalTrackID(TrackSubtitle, "abc")

	assert.Equal(t, "emb:audio:0", emb)
	assert.Equal(t, "ext:subtitle:abc", ext)
	assert.False(t, IsExternalID(emb))
	assert.True(t, IsExternalID(ext))

	// Embedded and external namespaces never collide, even for the
	// same backend-reported index.
	assert.NotEqual(t, EmbeddedTrackID(TrackSubtitle, "abc"), ext)
}

func TestAutoQualityTrack(t *testing.T) {
	auto := AutoQualityTrack()
	assert.True(t, auto.IsAuto())
	assert.False(t, Track{ID: "emb:quality:0", Kind: TrackQuality}.IsAuto())
	assert.False(t, auto.External())
}

func TestChapterAt(t *testing.T) {
	chapters := []Chapter{
		{Title: "Intro", Start: 0, End: minute(1)},
		{Title: "Act I", Start: minute(1), End: minute(20)},
		{Title: "Credits", Start: minute(20)}, // open-ended
	}

	c, ok := ChapterAt(chapters, minute(0))
	assert.True(t, ok)
	assert.Equal(t, "Intro", c.Title)

	c, ok = ChapterAt(chapters, minute(1))
	assert.True(t, ok)
	assert.Equal(t, "Act I", c.Title)

	c, ok = ChapterAt(chapters, minute(90))
	assert.True(t, ok)
	assert.Equal(t, "Credits", c.Title)

	_, ok = ChapterAt(nil, minute(5))
	assert.False(t, ok)
}

func minute(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
