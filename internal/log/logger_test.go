// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSessionAnnotatesFields(t *testing.T) {
	l := WithSession("normalizer", "sess-1")
	// The logger must be usable without panicking; field content is
	// covered by zerolog itself.
	l.Debug().Msg("probe")
}

func TestSessionIDRoundTrip(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess-42")
	assert.Equal(t, "sess-42", SessionIDFromContext(ctx))
}

func TestSessionIDFromContextMissing(t *testing.T) {
	assert.Equal(t, "", SessionIDFromContext(context.Background()))
	assert.Equal(t, "", SessionIDFromContext(nil)) //nolint:staticcheck // explicit nil-safety contract
}

func TestFromContextNil(t *testing.T) {
	l := FromContext(nil) //nolint:staticcheck // explicit nil-safety contract
	assert.NotNil(t, l)
}
