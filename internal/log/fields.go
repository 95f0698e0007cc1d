// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldTrackID   = "track_id"
	FieldSourceURI = "source_uri"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Playback fields
	FieldPosition  = "position_ms"
	FieldDuration  = "duration_ms"
	FieldBitrate   = "bitrate"
	FieldAttempt   = "attempt"
	FieldTrackKind = "track_kind"
)
