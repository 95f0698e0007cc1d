// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/playcore/internal/log"
)

// Load builds an Options snapshot: defaults, overlaid by the YAML file at
// path (if non-empty), overlaid by PLAYCORE_* environment variables. The
// result is validated before being returned.
func Load(path string) (Options, error) {
	opts := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- caller-supplied config path
		if err != nil {
			return Options{}, fmt.Errorf("read config: %w", err)
		}
		// Strict decoding: unknown keys are configuration mistakes.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&opts); err != nil {
			return Options{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	opts = mergeEnv(opts)

	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("validate config: %w", err)
	}

	logger := log.WithComponent("config")
	logger.Debug().
		Str("path", path).
		Int("max_retries", opts.MaxRetries).
		Int64("max_bitrate", opts.MaxBitrateBPS).
		Msg("options loaded")
	return opts, nil
}
