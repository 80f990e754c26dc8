// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package core

import (
	"context"
	"maps"
	"sync"

	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/world"
)

// Belongings loads what players carry. store.BelongingsStore implements it.
type Belongings interface {
	EnsureOwner(ctx context.Context, ownerID, name string) error
	LoadBelongings(ctx context.Context, ownerID string) (map[world.EquipSlot]persist.Node, error)
}

// SaveQueue accepts snapshots for background writing. store.Saver
// implements it.
type SaveQueue interface {
	Enqueue(ownerID string, roots map[world.EquipSlot]persist.Node) error
}

// MemoryStore keeps belongings in memory. It is used when no database is
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	names  map[string]string
	saved  map[string]map[world.EquipSlot]persist.Node
	writes int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		names: make(map[string]string),
		saved: make(map[string]map[world.EquipSlot]persist.Node),
	}
}

// EnsureOwner records the owner.
func (s *MemoryStore) EnsureOwner(_ context.Context, ownerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[ownerID] = name
	return nil
}

// LoadBelongings returns a copy of the last save, or nil.
func (s *MemoryStore) LoadBelongings(_ context.Context, ownerID string) (map[world.EquipSlot]persist.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots, ok := s.saved[ownerID]
	if !ok {
		return nil, nil
	}
	return maps.Clone(roots), nil
}

// SaveBelongings replaces the owner's belongings. It matches
// store.BelongingsWriter so a store.Saver can write to it.
func (s *MemoryStore) SaveBelongings(_ context.Context, ownerID string, roots map[world.EquipSlot]persist.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[ownerID] = maps.Clone(roots)
	s.writes++
	return nil
}

// Enqueue saves immediately. It lets a MemoryStore stand in for a SaveQueue.
func (s *MemoryStore) Enqueue(ownerID string, roots map[world.EquipSlot]persist.Node) error {
	return s.SaveBelongings(context.Background(), ownerID, roots)
}

// Writes returns how many saves were made.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
