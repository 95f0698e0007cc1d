// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracks

import (
	"context"

	"golang.org/x/text/language"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/media"
)

// autoSelectSubtitle applies the one-shot policy on first subtitle list
// availability: preferred language match, else the backend-flagged
// default, else the first available track, else none. A prior manual
// selection disables the policy for the rest of the session.
func (s *Selector) autoSelectSubtitle(ctx context.Context, merged []media.Track) {
	s.mu.Lock()
	if s.autoApplied || s.manualOverride || !s.cfg.SubtitleAutoSelect || len(merged) == 0 {
		s.mu.Unlock()
		return
	}
	s.autoApplied = true
	s.mu.Unlock()

	pick, ok := pickByPolicy(merged, s.cfg.PreferredSubtitleLanguage)
	if !ok {
		return
	}
	s.applyAutoPick(ctx, media.TrackSubtitle, pick)
}

// autoSelectAudio only overrides the backend default when the preferred
// audio language is actually available; there is no default/first
// fallback for audio.
func (s *Selector) autoSelectAudio(ctx context.Context, merged []media.Track) {
	if s.cfg.PreferredAudioLanguage == "" {
		return
	}
	s.mu.Lock()
	if s.selected[media.TrackAudio] != "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	pick, ok := pickByLanguage(merged, s.cfg.PreferredAudioLanguage)
	if !ok {
		return
	}
	s.applyAutoPick(ctx, media.TrackAudio, pick)
}

// applyAutoPick selects without latching the manual override.
func (s *Selector) applyAutoPick(ctx context.Context, kind media.TrackKind, track media.Track) {
	if err := s.engine.SelectTrack(ctx, kind, backendID(track.ID)); err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldTrackID, track.ID).
			Msg("auto-selection rejected by backend")
		return
	}

	s.mu.Lock()
	s.selected[kind] = track.ID
	s.mu.Unlock()

	s.logTransition(kind, track.ID)
	s.emit(event.TrackSelected(kind, &track))
}

func pickByPolicy(tracks []media.Track, preferred string) (media.Track, bool) {
	if t, ok := pickByLanguage(tracks, preferred); ok {
		return t, true
	}
	for _, t := range tracks {
		if t.IsDefault {
			return t, true
		}
	}
	if len(tracks) > 0 {
		return tracks[0], true
	}
	return media.Track{}, false
}

// pickByLanguage matches track languages against the preferred tag using
// BCP-47 matching, so "en" picks "en-US" variants and vice versa.
func pickByLanguage(tracks []media.Track, preferred string) (media.Track, bool) {
	if preferred == "" {
		return media.Track{}, false
	}
	want, err := language.Parse(preferred)
	if err != nil {
		return media.Track{}, false
	}

	tags := make([]language.Tag, 0, len(tracks))
	idx := make([]int, 0, len(tracks))
	for i, t := range tracks {
		if t.Language == "" {
			continue
		}
		tag, err := language.Parse(t.Language)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		idx = append(idx, i)
	}
	if len(tags) == 0 {
		return media.Track{}, false
	}

	matcher := language.NewMatcher(tags)
	_, i, conf := matcher.Match(want)
	if conf == language.No {
		return media.Track{}, false
	}
	return tracks[idx[i]], true
}
