// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import "fmt"

// Position is a map coordinate.
type Position struct {
	X, Y int
	Z    int8
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Tile is a map square. It is a root holder: its Parent is always nil.
// Ground items are ordered top first; creatures are kept separately.
type Tile struct {
	world     *World
	pos       Position
	items     []*Item
	creatures []*Creature
}

// NewTile creates an empty tile.
func (w *World) NewTile(pos Position) *Tile {
	return &Tile{world: w, pos: pos}
}

// Position returns the tile coordinate.
func (t *Tile) Position() Position { return t.pos }

// Items returns a copy of the ground items, top first.
func (t *Tile) Items() []*Item {
	out := make([]*Item, len(t.items))
	copy(out, t.items)
	return out
}

// Creatures returns a copy of the creatures standing on the tile.
func (t *Tile) Creatures() []*Creature {
	out := make([]*Creature, len(t.creatures))
	copy(out, t.creatures)
	return out
}

// TopItem returns the most recently placed ground item, or nil.
func (t *Tile) TopItem() *Item {
	if len(t.items) == 0 {
		return nil
	}
	return t.items[0]
}

// Parent implements Holder.
func (t *Tile) Parent() Holder { return nil }

// QueryAdd implements Holder. Tiles accept items that cannot be picked up.
func (t *Tile) QueryAdd(_ int, thing Thing, _ int, flags Flags, _ *Creature) ReturnValue {
	switch v := thing.(type) {
	case *Creature:
		return NoError
	case *Item:
		if v == nil {
			return NotPossible
		}
		if len(t.items) >= t.world.maxTileItems && !flags.Has(FlagNoLimit) {
			return TileFull
		}
		return NoError
	}
	return NotPossible
}

// QueryMaxCount implements Holder.
func (t *Tile) QueryMaxCount(_ int, _ Thing, count int, _ Flags) (int, ReturnValue) {
	return max(1, count), NoError
}

// QueryRemove implements Holder.
func (t *Tile) QueryRemove(thing Thing, count int, flags Flags, _ *Creature) ReturnValue {
	if c, ok := thing.(*Creature); ok {
		if c.parent != Holder(t) {
			return NotPossible
		}
		return NoError
	}
	it := asItem(thing)
	if it == nil || t.IndexOf(it) < 0 {
		return NotPossible
	}
	if count <= 0 || count > it.Count() {
		return NotPossible
	}
	if !it.IsMovable() && !flags.Has(FlagIgnoreNotMovable) {
		return NotMovable
	}
	return NoError
}

// QueryDestination implements Holder. Items dropped on a tile land on top
// and merge with the top item while it is a partial stack.
func (t *Tile) QueryDestination(_ int, thing Thing, _ Flags) (Holder, int, *Item) {
	it, ok := thing.(*Item)
	if !ok || it == nil {
		return t, IndexWherever, nil
	}
	if top := t.TopItem(); it.mergeRoom(top) > 0 {
		return t, IndexWherever, top
	}
	return t, IndexWherever, nil
}

// AddThing implements Holder.
func (t *Tile) AddThing(_ int, thing Thing) {
	switch v := thing.(type) {
	case *Creature:
		v.parent = t
		t.creatures = append(t.creatures, v)
	case *Item:
		v.parent = t
		t.items = append(t.items, nil)
		copy(t.items[1:], t.items)
		t.items[0] = v
		t.world.deliver(t, NotifyAdd, 0, v)
	}
}

// UpdateThing implements Holder.
func (t *Tile) UpdateThing(thing Thing, typeID uint16, count int) {
	it := asItem(thing)
	index := t.IndexOf(it)
	if index < 0 {
		return
	}
	typ := t.world.types.Get(typeID)
	if typ == nil {
		return
	}
	it.setType(typ, count)
	t.world.deliver(t, NotifyUpdate, index, it)
}

// ReplaceThing implements Holder.
func (t *Tile) ReplaceThing(index int, thing Thing) {
	it := asItem(thing)
	if it == nil || index < 0 || index >= len(t.items) {
		return
	}
	replaced := t.items[index]
	t.items[index] = it
	it.parent = t
	replaced.parent = nil
	t.world.deliver(t, NotifyUpdate, index, it)
}

// RemoveThing implements Holder.
func (t *Tile) RemoveThing(thing Thing, count int) {
	if c, ok := thing.(*Creature); ok {
		for i, other := range t.creatures {
			if other == c {
				t.creatures = append(t.creatures[:i], t.creatures[i+1:]...)
				c.parent = nil
				return
			}
		}
		return
	}
	it := asItem(thing)
	index := t.IndexOf(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		it.setCount(it.count - count)
		t.world.deliver(t, NotifyUpdate, index, it)
		return
	}
	t.items = append(t.items[:index], t.items[index+1:]...)
	it.parent = nil
	t.world.deliver(t, NotifyRemove, index, it)
}

// ThingAt implements Holder. Only ground items are indexed.
func (t *Tile) ThingAt(index int) Thing {
	if index < 0 || index >= len(t.items) {
		return nil
	}
	return t.items[index]
}

// IndexOf implements Holder.
func (t *Tile) IndexOf(thing Thing) int {
	it := asItem(thing)
	if it == nil {
		return -1
	}
	for i, other := range t.items {
		if other == it {
			return i
		}
	}
	return -1
}

// FirstIndex implements Holder.
func (t *Tile) FirstIndex() int { return 0 }

// LastIndex implements Holder.
func (t *Tile) LastIndex() int { return len(t.items) }

// ItemTypeCount implements Holder.
func (t *Tile) ItemTypeCount(typeID uint16, subtype int) int {
	n := 0
	for _, it := range t.items {
		if it.typ.ID == typeID {
			n += countMatches(it, subtype)
		}
	}
	return n
}

// AllItemTypeCounts implements Holder.
func (t *Tile) AllItemTypeCounts(counts map[uint16]int) map[uint16]int {
	if counts == nil {
		counts = make(map[uint16]int)
	}
	for _, it := range t.items {
		counts[it.typ.ID] += it.Count()
	}
	return counts
}

// PostAddNotification implements Holder.
func (t *Tile) PostAddNotification(thing Thing, oldParent Holder, index int, link Link) {
	t.world.runHooks(true, HookEvent{Thing: thing, Holder: t, Other: oldParent, Index: index, Link: link})
}

// PostRemoveNotification implements Holder.
func (t *Tile) PostRemoveNotification(thing Thing, newParent Holder, index int, link Link) {
	t.world.runHooks(false, HookEvent{Thing: thing, Holder: t, Other: newParent, Index: index, Link: link})
}
