// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/backend/backendtest"
	"github.com/ManuGH/playcore/media"
)

func managerDeps() Deps {
	return Deps{
		Engine:    backendtest.NewEngine(backend.Capabilities{}),
		Recovery:  &backendtest.Recovery{},
		Subtitles: &backendtest.SubtitleLoader{},
	}
}

func TestManagerRegistry(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	a, err := m.Create(ctx, media.Source{URI: "https://a.example/1.m3u8"}, testOptions(), managerDeps())
	require.NoError(t, err)
	b, err := m.Create(ctx, media.Source{URI: "https://a.example/2.m3u8"}, testOptions(), managerDeps())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.DisposeAll(ctx) })

	assert.NotEqual(t, a.ID, b.ID)

	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Dispose(ctx, a.ID))
	_, ok = m.Get(a.ID)
	assert.False(t, ok)
	assert.Len(t, m.List(), 1)
	assert.ErrorIs(t, a.Play(ctx), ErrDisposed)

	assert.Error(t, m.Dispose(ctx, "no-such-id"))
}

func TestManagerDisposeAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager()
	ctx := context.Background()

	var sessions []*Session
	for i := 0; i < 4; i++ {
		s, err := m.Create(ctx, media.Source{URI: "https://a.example/s.m3u8"}, testOptions(), managerDeps())
		require.NoError(t, err)
		sessions = append(sessions, s)
	}

	require.NoError(t, m.DisposeAll(ctx))
	assert.Empty(t, m.List())
	for _, s := range sessions {
		assert.Equal(t, media.StateDisposed, s.Value().State)
	}
}
