// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"fmt"
	"strings"
)

// TrackKind identifies a selectable track family.
type TrackKind string

const (
	TrackAudio    TrackKind = "audio"
	TrackSubtitle TrackKind = "subtitle"
	TrackQuality  TrackKind = "quality"
)

// ID namespaces. Embedded tracks come from the source manifest/container,
// external tracks are added by the application at runtime. The prefix keeps
// the two address spaces disjoint even when backends reuse numeric indices.
const (
	embeddedPrefix = "emb"
	externalPrefix = "ext"

	// AutoQualityID is the synthetic rendition that delegates bitrate
	// selection to the adaptive backend. It is present in the quality
	// list only when the backend is adaptive-streaming-capable.
	AutoQualityID = "auto"
)

// EmbeddedTrackID builds a stable ID for a backend-reported track.
func EmbeddedTrackID(kind TrackKind, backendID string) string {
	return fmt.Sprintf("%s:%s:%s", embeddedPrefix, kind, backendID)
}

// ExternalTrackID builds a stable ID for an application-added track.
func ExternalTrackID(kind TrackKind, key string) string {
	return fmt.Sprintf("%s:%s:%s", externalPrefix, kind, key)
}

// IsExternalID reports whether the ID belongs to the external namespace.
func IsExternalID(id string) bool {
	return strings.HasPrefix(id, externalPrefix+":")
}

// Track describes one selectable audio, subtitle or quality entry.
type Track struct {
	ID        string    `json:"id"`
	Kind      TrackKind `json:"kind"`
	Label     string    `json:"label"`
	Language  string    `json:"language,omitempty"`
	IsDefault bool      `json:"isDefault,omitempty"`

	// Quality metadata.
	Width   int   `json:"width,omitempty"`
	Height  int   `json:"height,omitempty"`
	Bitrate int64 `json:"bitrate,omitempty"`

	// External subtitle metadata.
	Format string `json:"format,omitempty"`
}

// External reports whether the track was added by the application.
func (t Track) External() bool { return IsExternalID(t.ID) }

// IsAuto reports whether the track is the adaptive "auto" sentinel.
func (t Track) IsAuto() bool { return t.Kind == TrackQuality && t.ID == AutoQualityID }

// AutoQualityTrack returns the synthetic auto rendition entry.
func AutoQualityTrack() Track {
	return Track{ID: AutoQualityID, Kind: TrackQuality, Label: "Auto"}
}

// FindTrack returns the track with the given ID, if present.
func FindTrack(list []Track, id string) (Track, bool) {
	for _, t := range list {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
