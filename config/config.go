// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides the immutable per-session option snapshot.
package config

import (
	"fmt"
	"time"
)

// Options is the configuration snapshot a session is constructed with.
// It is frozen at construction; nothing mutates it afterwards.
type Options struct {
	// Network recovery.
	MaxRetries        int           `yaml:"maxRetries"`
	RetryInitialDelay time.Duration `yaml:"retryInitialDelay"`
	RetryMaxDelay     time.Duration `yaml:"retryMaxDelay"`

	// Event normalization thresholds.
	PositionThreshold time.Duration `yaml:"positionThreshold"`
	BandwidthDeltaBPS int64         `yaml:"bandwidthDelta"`

	// Adaptive quality constraints. Zero means unconstrained.
	MaxBitrateBPS int64 `yaml:"maxBitrate"`
	MinBitrateBPS int64 `yaml:"minBitrate"`

	// Track auto-selection.
	PreferredSubtitleLanguage string `yaml:"preferredSubtitleLanguage"`
	PreferredAudioLanguage    string `yaml:"preferredAudioLanguage"`
	SubtitleAutoSelect        bool   `yaml:"subtitleAutoSelect"`

	// Playback defaults.
	Volume float64 `yaml:"volume"`
	Speed  float64 `yaml:"speed"`

	// Playlist size known to the embedding app; zero disables
	// playlist-index progression.
	PlaylistSize int `yaml:"playlistSize"`

	// Resume-position persistence. Empty dir selects the in-memory store.
	ResumeDir           string        `yaml:"resumeDir"`
	ResumeWriteInterval time.Duration `yaml:"resumeWriteInterval"`

	// Normalizer intake queue depth.
	QueueSize int `yaml:"queueSize"`
}

// Default returns the baseline option set.
func Default() Options {
	return Options{
		MaxRetries:          3,
		RetryInitialDelay:   500 * time.Millisecond,
		RetryMaxDelay:       15 * time.Second,
		PositionThreshold:   100 * time.Millisecond,
		BandwidthDeltaBPS:   100_000,
		SubtitleAutoSelect:  true,
		Volume:              1.0,
		Speed:               1.0,
		ResumeWriteInterval: 5 * time.Second,
		QueueSize:           256,
	}
}

// Validate checks the option set and returns the first violation found.
func (o Options) Validate() error {
	if o.MaxRetries < 0 {
		return fmt.Errorf("maxRetries: must be >= 0, got %d", o.MaxRetries)
	}
	if o.RetryInitialDelay <= 0 {
		return fmt.Errorf("retryInitialDelay: must be > 0, got %s", o.RetryInitialDelay)
	}
	if o.RetryMaxDelay < o.RetryInitialDelay {
		return fmt.Errorf("retryMaxDelay: must be >= retryInitialDelay (%s), got %s",
			o.RetryInitialDelay, o.RetryMaxDelay)
	}
	if o.PositionThreshold < 0 {
		return fmt.Errorf("positionThreshold: must be >= 0, got %s", o.PositionThreshold)
	}
	if o.BandwidthDeltaBPS < 0 {
		return fmt.Errorf("bandwidthDelta: must be >= 0, got %d", o.BandwidthDeltaBPS)
	}
	if o.MaxBitrateBPS < 0 || o.MinBitrateBPS < 0 {
		return fmt.Errorf("bitrate constraints: must be >= 0")
	}
	if o.MaxBitrateBPS > 0 && o.MinBitrateBPS > o.MaxBitrateBPS {
		return fmt.Errorf("minBitrate: must be <= maxBitrate (%d), got %d",
			o.MaxBitrateBPS, o.MinBitrateBPS)
	}
	if o.Volume < 0 || o.Volume > 1 {
		return fmt.Errorf("volume: must be in [0,1], got %g", o.Volume)
	}
	if o.Speed <= 0 {
		return fmt.Errorf("speed: must be > 0, got %g", o.Speed)
	}
	if o.PlaylistSize < 0 {
		return fmt.Errorf("playlistSize: must be >= 0, got %d", o.PlaylistSize)
	}
	if o.QueueSize <= 0 {
		return fmt.Errorf("queueSize: must be > 0, got %d", o.QueueSize)
	}
	if o.ResumeWriteInterval <= 0 {
		return fmt.Errorf("resumeWriteInterval: must be > 0, got %s", o.ResumeWriteInterval)
	}
	return nil
}
