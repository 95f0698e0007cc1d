// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package quality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/backend/backendtest"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) emit(ev event.Event) { r.events = append(r.events, ev) }

func (r *recorder) ofType(t event.Type) []event.Event {
	var out []event.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func renditions(bitrates ...int64) []media.Track {
	out := make([]media.Track, len(bitrates))
	for i, b := range bitrates {
		out[i] = media.Track{
			ID:      media.EmbeddedTrackID(media.TrackQuality, string(rune('a'+i))),
			Kind:    media.TrackQuality,
			Bitrate: b,
		}
	}
	return out
}

func newController(t *testing.T, caps backend.Capabilities, cfg Config) (*Controller, *backendtest.Engine, *recorder) {
	t.Helper()
	eng := backendtest.NewEngine(caps)
	t.Cleanup(func() { _ = eng.Close() })
	rec := &recorder{}
	return NewController("sess-test", eng, cfg, rec.emit), eng, rec
}

func TestAutoSentinelPresentOnlyWhenAdaptive(t *testing.T) {
	c, _, _ := newController(t, backend.Capabilities{AdaptiveStreaming: true}, Config{})
	c.OnBackendQualities(context.Background(), renditions(500_000))
	tracks := c.Tracks()
	require.NotEmpty(t, tracks)
	assert.True(t, tracks[0].IsAuto())

	c2, _, _ := newController(t, backend.Capabilities{}, Config{})
	c2.OnBackendQualities(context.Background(), renditions(500_000))
	for _, tr := range c2.Tracks() {
		assert.False(t, tr.IsAuto())
	}
}

func TestBitrateCapRestrictsAutoSelection(t *testing.T) {
	c, eng, _ := newController(t,
		backend.Capabilities{AdaptiveStreaming: true},
		Config{MaxBitrateBPS: 2_000_000})

	c.OnBackendQualities(context.Background(), renditions(500_000, 1_500_000, 3_000_000))

	// The cap resolves to the highest rendition at or below 2000k:
	// the backend can never pick the 3000k one under Auto.
	arg, ok := eng.LastArg("max_bitrate")
	require.True(t, ok)
	assert.Equal(t, int64(1_500_000), arg)
}

func TestBitrateCapReappliedOnManifestUpdate(t *testing.T) {
	c, eng, _ := newController(t,
		backend.Capabilities{AdaptiveStreaming: true},
		Config{MaxBitrateBPS: 2_000_000})

	c.OnBackendQualities(context.Background(), renditions(500_000, 1_500_000))
	c.OnBackendQualities(context.Background(), renditions(500_000, 1_800_000, 3_000_000))

	arg, ok := eng.LastArg("max_bitrate")
	require.True(t, ok)
	assert.Equal(t, int64(1_800_000), arg)
}

func TestBitrateCapBelowAllAllowsLowest(t *testing.T) {
	c, eng, _ := newController(t,
		backend.Capabilities{AdaptiveStreaming: true},
		Config{MaxBitrateBPS: 100_000})

	c.OnBackendQualities(context.Background(), renditions(500_000, 1_500_000))

	arg, ok := eng.LastArg("max_bitrate")
	require.True(t, ok)
	assert.Equal(t, int64(500_000), arg)
}

func TestSetManualPinsMode(t *testing.T) {
	c, eng, rec := newController(t, backend.Capabilities{AdaptiveStreaming: true}, Config{})
	list := renditions(500_000, 1_500_000)
	c.OnBackendQualities(context.Background(), list)

	require.NoError(t, c.Set(context.Background(), list[0].ID))
	assert.Equal(t, ModeManual, c.Mode())
	arg, _ := eng.LastArg("select_quality")
	assert.Equal(t, list[0].ID, arg)

	changed := rec.ofType(event.TypeQualityChanged)
	require.Len(t, changed, 1)
	assert.False(t, changed[0].IsAutoSwitch)
}

func TestSetAutoSentinelRestoresAutoMode(t *testing.T) {
	c, _, _ := newController(t, backend.Capabilities{AdaptiveStreaming: true}, Config{})
	list := renditions(500_000)
	c.OnBackendQualities(context.Background(), list)

	require.NoError(t, c.Set(context.Background(), list[0].ID))
	require.Equal(t, ModeManual, c.Mode())

	require.NoError(t, c.Set(context.Background(), media.AutoQualityID))
	assert.Equal(t, ModeAuto, c.Mode())
}

func TestSetStaleIDFailsUnchanged(t *testing.T) {
	c, eng, _ := newController(t, backend.Capabilities{AdaptiveStreaming: true}, Config{})
	c.OnBackendQualities(context.Background(), renditions(500_000))

	err := c.Set(context.Background(), "emb:quality:zz")
	require.ErrorIs(t, err, ErrTrackNotFound)
	assert.Equal(t, ModeAuto, c.Mode())
	_, called := eng.LastArg("select_quality")
	assert.False(t, called)
}

func TestAutoSwitchClassification(t *testing.T) {
	c, _, rec := newController(t, backend.Capabilities{AdaptiveStreaming: true}, Config{})
	list := renditions(500_000, 1_500_000)
	c.OnBackendQualities(context.Background(), list)

	// Backend changed rendition under Auto mode with no Set call.
	c.OnBackendQualityActive(list[1].ID)
	changed := rec.ofType(event.TypeQualityChanged)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].IsAutoSwitch)

	// Confirmation of a manual selection is not an auto-switch.
	require.NoError(t, c.Set(context.Background(), list[0].ID))
	c.OnBackendQualityActive(list[0].ID)
	changed = rec.ofType(event.TypeQualityChanged)
	assert.Len(t, changed, 2) // only the Set emission was added
}

func TestMinBitrateCapabilityGate(t *testing.T) {
	c, eng, _ := newController(t,
		backend.Capabilities{AdaptiveStreaming: true, MinBitrate: false},
		Config{MinBitrateBPS: 300_000})
	c.OnBackendQualities(context.Background(), renditions(500_000))

	assert.False(t, c.MinBitrateSupported())
	_, called := eng.LastArg("min_bitrate")
	assert.False(t, called)

	c2, eng2, _ := newController(t,
		backend.Capabilities{AdaptiveStreaming: true, MinBitrate: true},
		Config{MinBitrateBPS: 300_000})
	c2.OnBackendQualities(context.Background(), renditions(500_000))

	assert.True(t, c2.MinBitrateSupported())
	arg, called := eng2.LastArg("min_bitrate")
	require.True(t, called)
	assert.Equal(t, int64(300_000), arg)
}
