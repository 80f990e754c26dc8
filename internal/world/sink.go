// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// ScriptSink temporarily owns items created by a script until the script
// places them somewhere. It refuses regular adds; items enter through Adopt.
// Nobody observes a sink.
type ScriptSink struct {
	world *World
	items []*Item
}

// NewScriptSink creates an empty sink.
func (w *World) NewScriptSink() *ScriptSink {
	return &ScriptSink{world: w}
}

// Adopt takes ownership of an unowned item.
func (s *ScriptSink) Adopt(it *Item) {
	if it == nil || it.parent != nil {
		return
	}
	it.parent = s
	s.items = append(s.items, it)
}

// Len returns the number of items still held.
func (s *ScriptSink) Len() int { return len(s.items) }

// Sweep releases every item still held and returns how many there were.
func (s *ScriptSink) Sweep() int {
	items := s.items
	s.items = nil
	for _, it := range items {
		it.parent = nil
		s.world.Release(it)
	}
	return len(items)
}

// Parent implements Holder.
func (s *ScriptSink) Parent() Holder { return nil }

// QueryAdd implements Holder.
func (s *ScriptSink) QueryAdd(int, Thing, int, Flags, *Creature) ReturnValue {
	return NotPossible
}

// QueryMaxCount implements Holder.
func (s *ScriptSink) QueryMaxCount(int, Thing, int, Flags) (int, ReturnValue) {
	return 0, NotPossible
}

// QueryRemove implements Holder.
func (s *ScriptSink) QueryRemove(thing Thing, count int, _ Flags, _ *Creature) ReturnValue {
	it := asItem(thing)
	if it == nil || s.IndexOf(it) < 0 || count <= 0 || count > it.Count() {
		return NotPossible
	}
	return NoError
}

// QueryDestination implements Holder.
func (s *ScriptSink) QueryDestination(index int, _ Thing, _ Flags) (Holder, int, *Item) {
	return s, index, nil
}

// AddThing implements Holder. It behaves like Adopt.
func (s *ScriptSink) AddThing(_ int, thing Thing) {
	s.Adopt(asItem(thing))
}

// UpdateThing implements Holder.
func (s *ScriptSink) UpdateThing(thing Thing, typeID uint16, count int) {
	it := asItem(thing)
	if s.IndexOf(it) < 0 {
		return
	}
	if t := s.world.types.Get(typeID); t != nil {
		it.setType(t, count)
	}
}

// ReplaceThing implements Holder.
func (s *ScriptSink) ReplaceThing(index int, thing Thing) {
	it := asItem(thing)
	if it == nil || index < 0 || index >= len(s.items) {
		return
	}
	s.items[index].parent = nil
	s.items[index] = it
	it.parent = s
}

// RemoveThing implements Holder.
func (s *ScriptSink) RemoveThing(thing Thing, count int) {
	it := asItem(thing)
	index := s.IndexOf(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		it.setCount(it.count - count)
		return
	}
	it.parent = nil
	s.items = append(s.items[:index], s.items[index+1:]...)
}

// ThingAt implements Holder.
func (s *ScriptSink) ThingAt(index int) Thing {
	if index < 0 || index >= len(s.items) {
		return nil
	}
	return s.items[index]
}

// IndexOf implements Holder.
func (s *ScriptSink) IndexOf(thing Thing) int {
	it := asItem(thing)
	if it == nil {
		return -1
	}
	for i, other := range s.items {
		if other == it {
			return i
		}
	}
	return -1
}

// FirstIndex implements Holder.
func (s *ScriptSink) FirstIndex() int { return 0 }

// LastIndex implements Holder.
func (s *ScriptSink) LastIndex() int { return len(s.items) }

// ItemTypeCount implements Holder.
func (s *ScriptSink) ItemTypeCount(typeID uint16, subtype int) int {
	n := 0
	for _, it := range s.items {
		if it.typ.ID == typeID {
			n += countMatches(it, subtype)
		}
	}
	return n
}

// AllItemTypeCounts implements Holder.
func (s *ScriptSink) AllItemTypeCounts(counts map[uint16]int) map[uint16]int {
	if counts == nil {
		counts = make(map[uint16]int)
	}
	for _, it := range s.items {
		counts[it.typ.ID] += it.Count()
	}
	return counts
}

// PostAddNotification implements Holder.
func (s *ScriptSink) PostAddNotification(Thing, Holder, int, Link) {}

// PostRemoveNotification implements Holder.
func (s *ScriptSink) PostRemoveNotification(Thing, Holder, int, Link) {}
