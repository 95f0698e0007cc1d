// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ManuGH/playcore/internal/log"
)

// Environment variable names. Every override is logged at debug level
// so misconfigured deployments are diagnosable.
const (
	envMaxRetries   = "PLAYCORE_MAX_RETRIES"
	envRetryInitial = "PLAYCORE_RETRY_INITIAL_DELAY"
	envRetryMax     = "PLAYCORE_RETRY_MAX_DELAY"
	envMaxBitrate   = "PLAYCORE_MAX_BITRATE"
	envMinBitrate   = "PLAYCORE_MIN_BITRATE"
	envSubtitleLang = "PLAYCORE_SUBTITLE_LANGUAGE"
	envAudioLang    = "PLAYCORE_AUDIO_LANGUAGE"
	envResumeDir    = "PLAYCORE_RESUME_DIR"
)

func mergeEnv(opts Options) Options {
	logger := log.WithComponent("config")

	if v, ok := lookupInt(envMaxRetries); ok {
		opts.MaxRetries = v
		logger.Debug().Str("key", envMaxRetries).Int("value", v).Msg("env override")
	}
	if v, ok := lookupDuration(envRetryInitial); ok {
		opts.RetryInitialDelay = v
		logger.Debug().Str("key", envRetryInitial).Dur("value", v).Msg("env override")
	}
	if v, ok := lookupDuration(envRetryMax); ok {
		opts.RetryMaxDelay = v
		logger.Debug().Str("key", envRetryMax).Dur("value", v).Msg("env override")
	}
	if v, ok := lookupInt64(envMaxBitrate); ok {
		opts.MaxBitrateBPS = v
		logger.Debug().Str("key", envMaxBitrate).Int64("value", v).Msg("env override")
	}
	if v, ok := lookupInt64(envMinBitrate); ok {
		opts.MinBitrateBPS = v
		logger.Debug().Str("key", envMinBitrate).Int64("value", v).Msg("env override")
	}
	if v, ok := os.LookupEnv(envSubtitleLang); ok && v != "" {
		opts.PreferredSubtitleLanguage = v
	}
	if v, ok := os.LookupEnv(envAudioLang); ok && v != "" {
		opts.PreferredAudioLanguage = v
	}
	if v, ok := os.LookupEnv(envResumeDir); ok && v != "" {
		opts.ResumeDir = v
	}
	return opts
}

func lookupInt(key string) (int, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupInt64(key string) (int64, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupDuration(key string) (time.Duration, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
