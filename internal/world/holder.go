// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// Holder is implemented by everything that can own things: containers,
// tiles, creature equipment and script sinks.
//
// Holders speak a two-phase protocol. The Query methods never mutate; the
// mutating methods never validate. Callers must run the queries first and
// commit only after they return NoError. World.MoveItem and World.AddItem
// are the canonical compositions.
type Holder interface {
	// Parent returns the holder above this one, or nil at the world root.
	Parent() Holder

	// QueryAdd checks whether thing may be added at index.
	QueryAdd(index int, thing Thing, count int, flags Flags, actor *Creature) ReturnValue
	// QueryMaxCount returns how many units of thing could be accepted at index.
	// It fails when fewer than count fit.
	QueryMaxCount(index int, thing Thing, count int, flags Flags) (int, ReturnValue)
	// QueryRemove checks whether count units of thing may be removed.
	QueryRemove(thing Thing, count int, flags Flags, actor *Creature) ReturnValue
	// QueryDestination resolves where thing offered at index really goes.
	// It returns the target holder, the adjusted index and, when the target
	// slot already holds an item, that item.
	QueryDestination(index int, thing Thing, flags Flags) (Holder, int, *Item)

	// AddThing commits an insertion.
	AddThing(index int, thing Thing)
	// UpdateThing changes the type and count of a held item in place.
	UpdateThing(thing Thing, typeID uint16, count int)
	// ReplaceThing swaps the thing at index for another.
	ReplaceThing(index int, thing Thing)
	// RemoveThing commits the removal of count units of thing.
	RemoveThing(thing Thing, count int)

	// ThingAt returns the thing at index, or nil.
	ThingAt(index int) Thing
	// IndexOf returns the index of thing, or -1.
	IndexOf(thing Thing) int
	// FirstIndex returns the first valid index.
	FirstIndex() int
	// LastIndex returns one past the last valid index.
	LastIndex() int
	// ItemTypeCount counts units of a type held. A subtype other than
	// SubtypeAny only matches stacks of exactly that count.
	ItemTypeCount(typeID uint16, subtype int) int
	// AllItemTypeCounts adds the units held per type to counts and returns it.
	AllItemTypeCounts(counts map[uint16]int) map[uint16]int

	// PostAddNotification announces a committed add to interested parties.
	PostAddNotification(thing Thing, oldParent Holder, index int, link Link)
	// PostRemoveNotification announces a committed removal.
	PostRemoveNotification(thing Thing, newParent Holder, index int, link Link)
}

// SubtypeAny matches every stack in Holder.ItemTypeCount.
const SubtypeAny = -1

// TopParent returns the outermost holder of t below the world root. A
// creature's equipment is always a top parent. A container lying directly on
// a tile is its own top parent.
func TopParent(t Thing) Holder {
	var prev Holder
	if it, ok := t.(*Item); ok {
		prev = it.asHolder()
	}
	cur := t.Parent()
	for cur != nil {
		if _, ok := cur.(*Equipment); ok {
			return cur
		}
		next := cur.Parent()
		if next == nil {
			break
		}
		prev = cur
		cur = next
	}
	if prev != nil {
		return prev
	}
	return cur
}

// RootOf returns the holder at the end of the parent chain of h.
func RootOf(h Holder) Holder {
	for h != nil {
		p := h.Parent()
		if p == nil {
			return h
		}
		h = p
	}
	return nil
}

func countMatches(it *Item, subtype int) int {
	if subtype == SubtypeAny || it.Count() == subtype {
		return it.Count()
	}
	return 0
}

func asItem(t Thing) *Item {
	it, _ := t.(*Item)
	return it
}

// Describe names a holder for logs and notifications.
func Describe(h Holder) string {
	switch v := h.(type) {
	case nil:
		return "none"
	case *Container:
		return "container:" + v.item.serial.String()
	case *Tile:
		return "tile:" + v.pos.String()
	case *Equipment:
		return "equipment:" + v.owner.id
	case *ScriptSink:
		return "sink"
	}
	return "unknown"
}
