// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/playcore/config"
	"github.com/ManuGH/playcore/internal/log"
	"github.com/ManuGH/playcore/media"
)

// Manager is the process-wide session registry. Multiple sessions run
// concurrently; each owns its controllers exclusively.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   log.WithComponent("manager"),
	}
}

// Create builds and registers a new session.
func (m *Manager) Create(ctx context.Context, src media.Source, opts config.Options, deps Deps, sopts ...Option) (*Session, error) {
	s, err := NewSession(ctx, src, opts, deps, sopts...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns all registered sessions in unspecified order.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Dispose tears one session down and removes it from the registry.
func (m *Manager) Dispose(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown session %q", id)
	}
	return s.Dispose(ctx)
}

// DisposeAll disposes every session concurrently and waits for all of
// them.
func (m *Manager) DisposeAll(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range all {
		g.Go(func() error { return s.Dispose(ctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.logger.Info().Int("sessions", len(all)).Msg("all sessions disposed")
	return nil
}
