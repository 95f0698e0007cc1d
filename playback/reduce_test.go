// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

func reduceAll(v Value, events ...event.Event) Value {
	for _, ev := range events {
		v = Reduce(v, ev)
	}
	return v
}

func TestReduceDeterministicReplay(t *testing.T) {
	seq := []event.Event{
		event.Initialized(),
		event.StateChanged(media.StateReady),
		event.Duration(10 * time.Minute),
		event.StateChanged(media.StatePlaying),
		event.Position(3 * time.Second),
		event.Buffered(12 * time.Second),
		event.TrackList(media.TrackSubtitle, []media.Track{
			{ID: "emb:subtitle:0", Kind: media.TrackSubtitle, Language: "en"},
		}),
		event.TrackSelected(media.TrackSubtitle, &media.Track{ID: "emb:subtitle:0", Kind: media.TrackSubtitle}),
		event.NetworkError("timeout"),
		event.Retrying(1),
		event.Recovered(1),
		event.StateChanged(media.StatePlaying),
		event.Position(5 * time.Second),
	}

	a := reduceAll(NewValue(), seq...)
	b := reduceAll(NewValue(), seq...)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("replay diverged (-first +second):\n%s", diff)
	}

	assert.Equal(t, media.StatePlaying, a.State)
	assert.Equal(t, 0, a.NetworkRetryCount)
	assert.False(t, a.IsNetworkBuffering)
}

func TestReduceRejectsInvalidTransition(t *testing.T) {
	v := NewValue()
	got := Reduce(v, event.StateChanged(media.StatePlaying))
	assert.Equal(t, media.StateUninitialized, got.State, "uninitialized cannot jump to playing")

	v = reduceAll(NewValue(), event.Initialized(), event.StateChanged(media.StateReady))
	got = Reduce(v, event.StateChanged(media.StateCompleted))
	assert.Equal(t, media.StateReady, got.State, "completed is reachable only from playing/buffering")
}

func TestReduceUnknownEventIsIdentity(t *testing.T) {
	v := reduceAll(NewValue(), event.Initialized(), event.StateChanged(media.StateReady))
	got := Reduce(v, event.Event{Type: event.Type("future.event")})
	if diff := cmp.Diff(v, got); diff != "" {
		t.Fatalf("unknown event changed the snapshot:\n%s", diff)
	}
}

func playingValue(t *testing.T) Value {
	t.Helper()
	v := reduceAll(NewValue(),
		event.Initialized(),
		event.StateChanged(media.StateReady),
		event.Duration(10*time.Minute),
		event.StateChanged(media.StatePlaying),
	)
	require.Equal(t, media.StatePlaying, v.State)
	return v
}

func TestReduceCompletedLoopOff(t *testing.T) {
	v := playingValue(t)
	got := Reduce(v, event.Completed())
	assert.Equal(t, media.StateCompleted, got.State)
	assert.Equal(t, 10*time.Minute, got.Position)
}

func TestReduceCompletedLoopOne(t *testing.T) {
	v := playingValue(t)
	v = Reduce(v, event.Loop(media.LoopOne))
	v = Reduce(v, event.Position(9*time.Minute))

	got := Reduce(v, event.Completed())
	assert.Equal(t, media.StatePlaying, got.State)
	assert.Equal(t, time.Duration(0), got.Position)
}

func TestReduceCompletedLoopAllAdvancesPlaylist(t *testing.T) {
	v := playingValue(t)
	v.PlaylistSize = 3
	v.PlaylistIndex = 2
	v = Reduce(v, event.Loop(media.LoopAll))

	got := Reduce(v, event.Completed())
	assert.Equal(t, media.StatePlaying, got.State)
	assert.Equal(t, 0, got.PlaylistIndex, "wraps to the first entry")
	assert.Equal(t, time.Duration(0), got.Position)
}

func TestReducePositionClampedToDuration(t *testing.T) {
	v := playingValue(t)
	got := Reduce(v, event.Position(11*time.Minute))
	assert.Equal(t, 10*time.Minute, got.Position)

	got = Reduce(v, event.Position(-time.Second))
	assert.Equal(t, time.Duration(0), got.Position)
}

func TestReduceNegativeBufferedIgnored(t *testing.T) {
	v := playingValue(t)
	v = Reduce(v, event.Buffered(8*time.Second))
	got := Reduce(v, event.Buffered(-time.Second))
	assert.Equal(t, 8*time.Second, got.Buffered)
}

func TestReduceSelectionDroppedWhenTrackDisappears(t *testing.T) {
	subs := []media.Track{
		{ID: "emb:subtitle:0", Kind: media.TrackSubtitle, Language: "en"},
		{ID: "emb:subtitle:1", Kind: media.TrackSubtitle, Language: "fr"},
	}
	v := reduceAll(playingValue(t),
		event.TrackList(media.TrackSubtitle, subs),
		event.TrackSelected(media.TrackSubtitle, &subs[1]),
	)
	require.NotNil(t, v.SelectedSubtitleTrack)

	got := Reduce(v, event.TrackList(media.TrackSubtitle, subs[:1]))
	assert.Nil(t, got.SelectedSubtitleTrack, "selection must stay a member of the merged list")
	require.NotNil(t, got.SubtitleTracks)
	assert.Len(t, got.SubtitleTracks, 1)
}

func TestReduceNetworkEpisodeFields(t *testing.T) {
	v := playingValue(t)

	v = Reduce(v, event.NetworkError("timeout"))
	assert.Equal(t, media.StateBuffering, v.State)
	assert.True(t, v.IsNetworkBuffering)
	assert.Equal(t, media.BufferingNetwork, v.BufferingReason)
	assert.False(t, v.HasError, "retryable errors are not terminal")

	v = Reduce(v, event.Retrying(2))
	assert.Equal(t, 2, v.NetworkRetryCount)

	v = Reduce(v, event.Recovered(2))
	assert.Equal(t, 0, v.NetworkRetryCount)
	assert.False(t, v.IsNetworkBuffering)
}

func TestReduceRecoveryFailedIsTerminal(t *testing.T) {
	v := reduceAll(playingValue(t),
		event.NetworkError("timeout"),
		event.Retrying(3),
	)
	got := Reduce(v, event.RecoveryFailed(3, "gave up"))
	assert.Equal(t, media.StateError, got.State)
	assert.True(t, got.HasError)
	assert.Equal(t, event.ClassNetwork, got.ErrorClass)
	assert.Equal(t, "gave up", got.ErrorMessage)
}

func TestReduceSourceError(t *testing.T) {
	v := playingValue(t)
	got := Reduce(v, event.SourceError("unsupported container"))
	assert.Equal(t, media.StateError, got.State)
	assert.Equal(t, event.ClassSource, got.ErrorClass)
}

func TestReduceChapterRecompute(t *testing.T) {
	chapters := []media.Chapter{
		{Title: "Intro", Start: 0, End: time.Minute},
		{Title: "Main", Start: time.Minute, End: 9 * time.Minute},
	}
	v := Reduce(playingValue(t), event.Chapters(chapters))
	require.NotNil(t, v.CurrentChapter)
	assert.Equal(t, "Intro", v.CurrentChapter.Title)

	v = Reduce(v, event.Position(2*time.Minute))
	require.NotNil(t, v.CurrentChapter)
	assert.Equal(t, "Main", v.CurrentChapter.Title)

	v = Reduce(v, event.Position(9*time.Minute+30*time.Second))
	assert.Nil(t, v.CurrentChapter, "between chapters")
}

func TestReduceRenderModeClearsCue(t *testing.T) {
	v := playingValue(t)
	v = Reduce(v, event.RenderModeChanged(media.RenderCues))
	v = Reduce(v, event.SubtitleCue(media.Cue{Start: time.Second, End: 2 * time.Second, Text: "hi"}))
	require.NotNil(t, v.ActiveCue)

	got := Reduce(v, event.RenderModeChanged(media.RenderNative))
	assert.Nil(t, got.ActiveCue)
	assert.Equal(t, media.RenderNative, got.RenderMode)
}

func TestReduceDisposedTerminal(t *testing.T) {
	v := playingValue(t)
	got := Reduce(v, event.Disposed())
	assert.Equal(t, media.StateDisposed, got.State)
	assert.Equal(t, media.LifecycleDisposed, got.Lifecycle)
}
