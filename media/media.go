// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import "time"

// Source is an opaque media locator plus optional transport headers.
// The core never interprets the URI; only backends do.
type Source struct {
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers,omitempty"`
}

// VideoSize is the decoded frame size in pixels.
type VideoSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CastDevice identifies a remote playback target reported by the
// casting provider.
type CastDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Chapter is a named span of the timeline.
type Chapter struct {
	Title string        `json:"title"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Contains reports whether the position falls inside this chapter.
// The end bound is exclusive; a zero End means open-ended.
func (c Chapter) Contains(pos time.Duration) bool {
	if pos < c.Start {
		return false
	}
	return c.End == 0 || pos < c.End
}

// ChapterAt returns the chapter covering pos, if any. Chapters are
// expected to be sorted by start and non-overlapping.
func ChapterAt(chapters []Chapter, pos time.Duration) (Chapter, bool) {
	for i := len(chapters) - 1; i >= 0; i-- {
		if chapters[i].Contains(pos) {
			return chapters[i], true
		}
	}
	return Chapter{}, false
}

// Cue is one timestamped subtitle fragment delivered in cue render mode.
type Cue struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}
