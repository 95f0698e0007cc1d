// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tracks owns the merged track registry and the audio/subtitle
// selection controller.
package tracks

import (
	"sync"

	"github.com/ManuGH/playcore/media"
)

// Registry holds embedded (backend-reported) and external
// (application-added) tracks and exposes the merged view. Updates never
// touch the current selection; that stays with the Selector.
type Registry struct {
	mu       sync.RWMutex
	embedded map[media.TrackKind][]media.Track
	external map[media.TrackKind][]media.Track
}

func NewRegistry() *Registry {
	return &Registry{
		embedded: make(map[media.TrackKind][]media.Track),
		external: make(map[media.TrackKind][]media.Track),
	}
}

// SetEmbedded replaces the backend-reported tracks of one kind and
// returns the recomputed merged list.
func (r *Registry) SetEmbedded(kind media.TrackKind, tracks []media.Track) []media.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedded[kind] = append([]media.Track(nil), tracks...)
	return r.mergedLocked(kind)
}

// AddExternal registers an application-added track and returns the
// recomputed merged list for its kind.
func (r *Registry) AddExternal(track media.Track) []media.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.external[track.Kind] = append(r.external[track.Kind], track)
	return r.mergedLocked(track.Kind)
}

// Merged returns embedded tracks followed by external ones.
func (r *Registry) Merged(kind media.TrackKind) []media.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mergedLocked(kind)
}

func (r *Registry) mergedLocked(kind media.TrackKind) []media.Track {
	out := make([]media.Track, 0, len(r.embedded[kind])+len(r.external[kind]))
	out = append(out, r.embedded[kind]...)
	out = append(out, r.external[kind]...)
	return out
}

// Find looks a track up by ID within its kind's merged list.
func (r *Registry) Find(kind media.TrackKind, id string) (media.Track, bool) {
	return media.FindTrack(r.Merged(kind), id)
}
