// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package quality owns adaptive-bitrate mode, manual rendition pinning
// and the bitrate-capping policy.
package quality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/event"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/internal/metrics"
	"github.com/ManuGH/playcore/media"
)

// Mode is the rendition-selection mode.
type Mode string

const (
	ModeAuto   Mode = "AUTO"
	ModeManual Mode = "MANUAL"
)

// ErrTrackNotFound means the requested rendition ID is no longer in the
// current list (race with a manifest update). State is unchanged.
var ErrTrackNotFound = errors.New("quality track not found in current list")

// Config carries the bitrate constraints frozen at session start.
// Zero values mean unconstrained.
type Config struct {
	MaxBitrateBPS int64
	MinBitrateBPS int64
}

// Controller tracks available renditions, the active one and the
// Auto/Manual mode flag.
type Controller struct {
	mu     sync.Mutex
	engine backend.Engine
	emit   func(event.Event)
	cfg    Config
	logger zerolog.Logger

	mode     Mode
	tracks   []media.Track // current quality list, auto sentinel included
	activeID string
}

// NewController wires a quality controller for one session.
func NewController(sessionID string, engine backend.Engine, cfg Config, emit func(event.Event)) *Controller {
	return &Controller{
		engine: engine,
		emit:   emit,
		cfg:    cfg,
		logger: log.WithSession("quality", sessionID),
		mode:   ModeAuto,
	}
}

// Mode returns the current selection mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Tracks returns the current rendition list, including the auto
// sentinel when the backend is adaptive-capable.
func (c *Controller) Tracks() []media.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]media.Track(nil), c.tracks...)
}

// MinBitrateSupported exposes the capability flag instead of silently
// ignoring the setting on backends that cannot honor it.
func (c *Controller) MinBitrateSupported() bool {
	return c.engine.Capabilities().MinBitrate
}

// OnBackendQualities ingests a backend rendition-list update, sorts it
// by bitrate, prepends the auto sentinel for adaptive backends and
// re-applies the bitrate constraints. The cap cannot be computed before
// tracks are enumerated, which is why it lives here and not in the
// constructor.
func (c *Controller) OnBackendQualities(ctx context.Context, reported []media.Track) {
	list := append([]media.Track(nil), reported...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Bitrate < list[j].Bitrate })

	if c.engine.Capabilities().AdaptiveStreaming {
		list = append([]media.Track{media.AutoQualityTrack()}, list...)
	}

	c.mu.Lock()
	c.tracks = list
	c.mu.Unlock()

	c.applyConstraints(ctx, list)
	c.emit(event.QualityList(list))
}

// applyConstraints restricts the adaptive backend to the highest
// rendition at or below the configured cap. Re-run on every list change
// because manifest updates can add or remove renditions.
func (c *Controller) applyConstraints(ctx context.Context, list []media.Track) {
	if c.cfg.MaxBitrateBPS > 0 {
		capBPS := effectiveCap(list, c.cfg.MaxBitrateBPS)
		if err := c.engine.SetMaxBitrate(ctx, capBPS); err != nil {
			c.logger.Warn().Err(err).Int64(log.FieldBitrate, capBPS).Msg("max-bitrate cap rejected")
		} else {
			c.logger.Debug().Int64(log.FieldBitrate, capBPS).Msg("max-bitrate cap applied")
		}
	}
	if c.cfg.MinBitrateBPS > 0 && c.MinBitrateSupported() {
		if err := c.engine.SetMinBitrate(ctx, c.cfg.MinBitrateBPS); err != nil {
			c.logger.Warn().Err(err).Int64(log.FieldBitrate, c.cfg.MinBitrateBPS).Msg("min-bitrate rejected")
		}
	}
}

// effectiveCap resolves the configured cap to the highest available
// rendition bitrate at or below it, so the backend never drifts into a
// rendition the policy excludes. With every rendition above the cap,
// the lowest one is allowed to keep playback possible at all.
func effectiveCap(list []media.Track, maxBPS int64) int64 {
	var best int64
	var lowest int64
	for _, t := range list {
		if t.IsAuto() || t.Bitrate == 0 {
			continue
		}
		if lowest == 0 || t.Bitrate < lowest {
			lowest = t.Bitrate
		}
		if t.Bitrate <= maxBPS && t.Bitrate > best {
			best = t.Bitrate
		}
	}
	if best == 0 {
		return lowest
	}
	return best
}

// Set applies a quality selection. The auto sentinel returns control to
// the adaptive backend; any other ID pins the mode to Manual. A stale
// ID fails with ErrTrackNotFound and changes nothing.
func (c *Controller) Set(ctx context.Context, id string) error {
	c.mu.Lock()
	track, ok := media.FindTrack(c.tracks, id)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}

	if err := c.engine.SelectQuality(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	oldMode := c.mode
	if track.IsAuto() {
		c.mode = ModeAuto
	} else {
		c.mode = ModeManual
	}
	c.activeID = id
	newMode := c.mode
	c.mu.Unlock()

	if oldMode != newMode {
		c.logger.Info().
			Str(log.FieldOldState, string(oldMode)).
			Str(log.FieldNewState, string(newMode)).
			Msg("quality mode switched")
	}
	metrics.RecordQualitySwitch("manual")
	c.emit(event.QualityChanged(track, false))
	return nil
}

// OnBackendQualityActive classifies a backend-reported rendition change:
// under Auto mode without a preceding Set call it is an auto-switch.
func (c *Controller) OnBackendQualityActive(id string) {
	c.mu.Lock()
	track, ok := media.FindTrack(c.tracks, id)
	if !ok {
		c.mu.Unlock()
		return
	}
	auto := c.mode == ModeAuto && id != c.activeID
	c.activeID = id
	c.mu.Unlock()

	if !auto {
		return
	}
	metrics.RecordQualitySwitch("auto")
	c.emit(event.QualityChanged(track, true))
}

// Active returns the currently active rendition ID, or "".
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}
