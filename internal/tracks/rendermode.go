// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracks

import (
	"context"
	"time"

	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/media"
)

// SetRenderMode switches subtitle presentation between backend-native
// rendering and cue delivery at runtime, without reinitializing the
// session. Switching to the mode already active is a no-op.
func (s *Selector) SetRenderMode(ctx context.Context, mode media.RenderMode) error {
	s.mu.Lock()
	if s.renderMode == mode {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	switch mode {
	case media.RenderCues:
		if err := s.attachCueListener(ctx); err != nil {
			return err
		}
	case media.RenderNative:
		if err := s.detachCueListener(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.renderMode = mode
	s.mu.Unlock()

	s.logger.Info().Str("mode", string(mode)).Msg("subtitle render mode switched")
	s.emit(event.RenderModeChanged(mode))
	return nil
}

// RenderMode returns the active subtitle render mode.
func (s *Selector) RenderMode() media.RenderMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderMode
}

// attachCueListener enables engine cue events for the active embedded
// text track. External tracks need no engine support; their cues are
// scheduled locally from the loaded list.
func (s *Selector) attachCueListener(ctx context.Context) error {
	if !s.engine.Capabilities().CueEvents {
		return nil
	}
	s.mu.Lock()
	attached := s.cueEvents
	s.mu.Unlock()
	if attached {
		return nil
	}
	if err := s.engine.SetCueEvents(ctx, true); err != nil {
		return err
	}
	s.mu.Lock()
	s.cueEvents = true
	s.mu.Unlock()
	return nil
}

// detachCueListener restores native rendering.
func (s *Selector) detachCueListener(ctx context.Context) error {
	s.mu.Lock()
	attached := s.cueEvents
	s.mu.Unlock()
	if !attached {
		return nil
	}
	if err := s.engine.SetCueEvents(ctx, false); err != nil {
		return err
	}
	s.mu.Lock()
	s.cueEvents = false
	s.mu.Unlock()
	return nil
}

// SetOffset shifts subtitle timing relative to the media clock.
func (s *Selector) SetOffset(off time.Duration) {
	s.mu.Lock()
	s.offset = off
	s.activeCue = nil // re-evaluate on next position update
	s.mu.Unlock()
	s.emit(event.SubtitleOffset(off))
}

// OnPosition drives cue scheduling for an active external subtitle
// track: when the cue covering the (offset-shifted) position changes, a
// cue event is emitted; leaving all cues emits a clearing event.
func (s *Selector) OnPosition(pos time.Duration) {
	s.mu.Lock()
	id := s.selected[media.TrackSubtitle]
	cues, ok := s.extCues[id]
	if !ok || !media.IsExternalID(id) {
		s.mu.Unlock()
		return
	}
	effective := pos + s.offset
	next := cueAt(cues, effective)
	prev := s.activeCue
	if sameCue(prev, next) {
		s.mu.Unlock()
		return
	}
	s.activeCue = next
	s.mu.Unlock()

	if next != nil {
		s.emit(event.SubtitleCue(*next))
	} else {
		s.emit(event.Event{Type: event.TypeSubtitleCue})
	}
}

func cueAt(cues []media.Cue, pos time.Duration) *media.Cue {
	for i := range cues {
		if pos >= cues[i].Start && pos < cues[i].End {
			c := cues[i]
			return &c
		}
	}
	return nil
}

func sameCue(a, b *media.Cue) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Start == b.Start && a.Text == b.Text
}
