// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/media"
)

var (
	// ErrTrackNotFound means the requested ID is absent from the current
	// merged list (typically a race with a manifest update). The
	// selection state is unchanged.
	ErrTrackNotFound = errors.New("track not found in current list")
	// ErrUnsupportedKind means the Selector does not manage this kind.
	ErrUnsupportedKind = errors.New("unsupported track kind")
)

// Config carries the selection policy knobs frozen at session start.
type Config struct {
	PreferredSubtitleLanguage string
	PreferredAudioLanguage    string
	SubtitleAutoSelect        bool
}

// Selector owns audio/subtitle selection, the one-shot auto-selection
// policy and the subtitle render-mode toggle.
type Selector struct {
	mu     sync.Mutex
	reg    *Registry
	engine backend.Engine
	loader backend.SubtitleLoader
	emit   func(event.Event)
	cfg    Config
	logger zerolog.Logger

	selected map[media.TrackKind]string

	// Auto-selection latches: the policy runs at most once per session
	// and a manual selection (including explicit "off") permanently
	// disables it.
	autoApplied    bool
	manualOverride bool

	renderMode media.RenderMode
	cueEvents  bool // engine-side cue listener attached

	// External subtitle cue delivery.
	extCues    map[string][]media.Cue
	extCounter int
	activeCue  *media.Cue
	offset     time.Duration
}

// NewSelector wires a selection controller for one session.
func NewSelector(sessionID string, reg *Registry, engine backend.Engine, loader backend.SubtitleLoader, cfg Config, emit func(event.Event)) *Selector {
	return &Selector{
		reg:        reg,
		engine:     engine,
		loader:     loader,
		emit:       emit,
		cfg:        cfg,
		logger:     log.WithSession("tracks", sessionID),
		selected:   make(map[media.TrackKind]string),
		renderMode: media.RenderNative,
		extCues:    make(map[string][]media.Cue),
	}
}

// OnEmbeddedTracks ingests a backend track-list update. It recomputes the
// merged list, emits a track-list-changed event and, for subtitles, runs
// the one-shot auto-selection policy. It never implicitly changes an
// existing selection.
func (s *Selector) OnEmbeddedTracks(ctx context.Context, kind media.TrackKind, tracks []media.Track) {
	merged := s.reg.SetEmbedded(kind, tracks)
	s.emit(event.TrackList(kind, merged))

	if kind == media.TrackSubtitle {
		s.autoSelectSubtitle(ctx, merged)
	}
	if kind == media.TrackAudio {
		s.autoSelectAudio(ctx, merged)
	}
}

// AddExternalSubtitle loads an external subtitle source and registers it.
// Load failures are reported to the caller as loader errors, never as
// playback errors, and leave all state unchanged.
func (s *Selector) AddExternalSubtitle(ctx context.Context, src media.Source, formatHint, label, language string) (media.Track, error) {
	cues, err := s.loader.Load(ctx, src, formatHint)
	if err != nil {
		return media.Track{}, fmt.Errorf("load external subtitle: %w", err)
	}

	s.mu.Lock()
	s.extCounter++
	track := media.Track{
		ID:       media.ExternalTrackID(media.TrackSubtitle, fmt.Sprintf("%d", s.extCounter)),
		Kind:     media.TrackSubtitle,
		Label:    label,
		Language: language,
		Format:   formatHint,
	}
	s.extCues[track.ID] = cues
	s.mu.Unlock()

	merged := s.reg.AddExternal(track)
	s.logger.Info().
		Str(log.FieldTrackID, track.ID).
		Int("cues", len(cues)).
		Msg("external subtitle added")
	s.emit(event.TrackList(media.TrackSubtitle, merged))
	return track, nil
}

// RegisterExternal adds an application-provided track without loading
// anything (external audio renditions, pre-parsed subtitles).
func (s *Selector) RegisterExternal(track media.Track, cues []media.Cue) media.Track {
	s.mu.Lock()
	s.extCounter++
	if track.ID == "" {
		track.ID = media.ExternalTrackID(track.Kind, fmt.Sprintf("%d", s.extCounter))
	}
	if track.Kind == media.TrackSubtitle && cues != nil {
		s.extCues[track.ID] = cues
	}
	s.mu.Unlock()

	merged := s.reg.AddExternal(track)
	s.emit(event.TrackList(track.Kind, merged))
	return track
}

// Select applies a manual selection. An empty ID disables the kind.
// Selecting an external subtitle disables embedded rendering and vice
// versa; audio selection never touches subtitles.
func (s *Selector) Select(ctx context.Context, kind media.TrackKind, id string) error {
	if kind != media.TrackAudio && kind != media.TrackSubtitle {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	if id == "" {
		return s.disable(ctx, kind)
	}

	track, ok := s.reg.Find(kind, id)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrTrackNotFound, kind, id)
	}

	if track.External() {
		// Embedded rendering off while an external track is active.
		if kind == media.TrackSubtitle {
			if err := s.engine.SelectTrack(ctx, kind, ""); err != nil {
				return err
			}
		}
	} else {
		if err := s.engine.SelectTrack(ctx, kind, backendID(track.ID)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.selected[kind] = track.ID
	if kind == media.TrackSubtitle {
		s.manualOverride = true
		s.activeCue = nil
	}
	s.mu.Unlock()

	s.logTransition(kind, track.ID)
	s.emit(event.TrackSelected(kind, &track))
	return nil
}

func (s *Selector) disable(ctx context.Context, kind media.TrackKind) error {
	if err := s.engine.SelectTrack(ctx, kind, ""); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected[kind] = ""
	if kind == media.TrackSubtitle {
		// Explicit "off" also latches the override.
		s.manualOverride = true
		s.activeCue = nil
	}
	s.mu.Unlock()

	s.logTransition(kind, "")
	s.emit(event.TrackSelected(kind, nil))
	return nil
}

// Selected returns the current track ID for a kind, or "".
func (s *Selector) Selected(kind media.TrackKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[kind]
}

func (s *Selector) logTransition(kind media.TrackKind, id string) {
	s.logger.Debug().
		Str(log.FieldTrackKind, string(kind)).
		Str(log.FieldTrackID, id).
		Msg("track selected")
}

// backendID strips the embedded namespace prefix, recovering the
// backend-native identifier.
func backendID(id string) string {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return id
}
