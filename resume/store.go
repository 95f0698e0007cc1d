// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resume persists last-known playback positions keyed by source
// URI, so a session can reopen a source where the previous one left off.
package resume

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// State is one persisted resume point.
type State struct {
	Position  time.Duration `json:"position"`
	Duration  time.Duration `json:"duration"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Store persists resume points. Get returns (nil, nil) when no point is
// stored for the URI.
type Store interface {
	Put(ctx context.Context, uri string, state *State) error
	Get(ctx context.Context, uri string) (*State, error)
	Delete(ctx context.Context, uri string) error
	Close() error
}

// MemoryStore is the default store when no directory is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*State)}
}

func (s *MemoryStore) Put(ctx context.Context, uri string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy to avoid races if the caller mutates state afterwards.
	clone := *state
	s.data[uri] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, uri string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if val, ok := s.data[uri]; ok {
		clone := *val
		return &clone, nil
	}
	return nil, nil
}

func (s *MemoryStore) Delete(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, uri)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = make(map[string]*State)
	s.mu.Unlock()
	return nil
}

// BadgerStore is the durable store. Keys carry a version prefix so the
// record layout can evolve without a rewrite.
type BadgerStore struct {
	db *badger.DB
}

const keyPrefix = "resume_v1:"

func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Put(ctx context.Context, uri string, state *State) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+uri), buf)
	})
}

func (s *BadgerStore) Get(ctx context.Context, uri string) (*State, error) {
	var out State
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + uri))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) Delete(ctx context.Context, uri string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + uri))
	})
}

func (s *BadgerStore) Close() error { return s.db.Close() }

// Open picks the store for the configured directory: badger when a
// directory is set, memory otherwise.
func Open(dir string) (Store, error) {
	if dir == "" {
		return NewMemoryStore(), nil
	}
	return OpenBadgerStore(dir)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BadgerStore)(nil)
)
