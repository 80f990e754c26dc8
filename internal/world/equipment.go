// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/itemtype"
)

// EquipSlot addresses one equipment slot. Slots are valid holder indices.
type EquipSlot int

// Equipment slots.
const (
	SlotHead EquipSlot = iota + 1
	SlotNecklace
	SlotBackpack
	SlotArmor
	SlotRight
	SlotLeft
	SlotLegs
	SlotFeet
	SlotRing
	SlotAmmo

	slotFirst = SlotHead
	slotLast  = SlotAmmo
)

var slotNames = [...]string{
	SlotHead:     "head",
	SlotNecklace: "necklace",
	SlotBackpack: "backpack",
	SlotArmor:    "armor",
	SlotRight:    "right",
	SlotLeft:     "left",
	SlotLegs:     "legs",
	SlotFeet:     "feet",
	SlotRing:     "ring",
	SlotAmmo:     "ammo",
}

// Valid reports whether s names a slot.
func (s EquipSlot) Valid() bool {
	return s >= slotFirst && s <= slotLast
}

func (s EquipSlot) String() string {
	if s.Valid() {
		return slotNames[s]
	}
	return "none"
}

// ParseSlot returns the slot with the given name.
func ParseSlot(name string) (EquipSlot, bool) {
	for s := slotFirst; s <= slotLast; s++ {
		if slotNames[s] == name {
			return s, true
		}
	}
	return 0, false
}

// Slots returns every slot in index order.
func Slots() []EquipSlot {
	out := make([]EquipSlot, 0, int(slotLast))
	for s := slotFirst; s <= slotLast; s++ {
		out = append(out, s)
	}
	return out
}

// Equipment is the holder for the items a creature wears. It tracks the
// weight it carries, including everything inside worn containers.
type Equipment struct {
	world    *World
	owner    *Creature
	slots    [slotLast + 1]*Item
	capacity float64
	weight   float64
}

// Owner returns the creature wearing the equipment.
func (e *Equipment) Owner() *Creature { return e.owner }

// Capacity returns the carry capacity.
func (e *Equipment) Capacity() float64 { return e.capacity }

// SetCapacity changes the carry capacity.
func (e *Equipment) SetCapacity(c float64) { e.capacity = c }

// Weight returns the carried weight.
func (e *Equipment) Weight() float64 { return e.weight }

// FreeCapacity returns how much more weight can be carried.
func (e *Equipment) FreeCapacity() float64 {
	return max(e.capacity-e.weight, 0)
}

// SlotItem returns the item in slot s, or nil.
func (e *Equipment) SlotItem(s EquipSlot) *Item {
	if !s.Valid() {
		return nil
	}
	return e.slots[s]
}

// Restore puts an unowned item into an empty slot without notifying anyone.
// It is used when loading belongings.
func (e *Equipment) Restore(s EquipSlot, it *Item) error {
	switch {
	case !s.Valid():
		return oops.Code(CodeBadSlot).With("slot", int(s)).Errorf("invalid slot %d", s)
	case e.slots[s] != nil:
		return oops.Code(CodeSlotOccupied).With("slot", s.String()).Errorf("slot %s is occupied", s)
	case it.parent != nil:
		return oops.Code(CodeItemHeld).With("serial", it.serial.String()).Errorf("item already has a holder")
	}
	it.parent = e
	e.slots[s] = it
	e.weight += it.Weight()
	return nil
}

// Parent implements Holder. Equipment hangs below the creature's tile.
func (e *Equipment) Parent() Holder {
	return e.owner.parent
}

// slotMatches reports whether a slot is the natural place for a type.
func slotMatches(s EquipSlot, t *itemtype.Type) bool {
	switch s {
	case SlotHead:
		return t.Slot == itemtype.SlotHead
	case SlotNecklace:
		return t.Slot == itemtype.SlotNecklace
	case SlotBackpack:
		return t.Slot == itemtype.SlotBackpack
	case SlotArmor:
		return t.Slot == itemtype.SlotArmor
	case SlotRight, SlotLeft:
		return t.Slot == itemtype.SlotHand || t.Slot == itemtype.SlotTwoHand
	case SlotLegs:
		return t.Slot == itemtype.SlotLegs
	case SlotFeet:
		return t.Slot == itemtype.SlotFeet
	case SlotRing:
		return t.Slot == itemtype.SlotRing
	case SlotAmmo:
		return t.Slot == itemtype.SlotAmmo
	}
	return false
}

// slotAccepts is slotMatches plus the hands and the ammo slot, which hold
// anything when addressed explicitly.
func slotAccepts(s EquipSlot, t *itemtype.Type) bool {
	switch s {
	case SlotRight, SlotLeft, SlotAmmo:
		return true
	}
	return slotMatches(s, t)
}

func otherHand(s EquipSlot) EquipSlot {
	if s == SlotRight {
		return SlotLeft
	}
	return SlotRight
}

func (e *Equipment) querySlot(s EquipSlot, it *Item) ReturnValue {
	if !slotAccepts(s, it.typ) {
		return CannotBeDressed
	}
	if cur := e.slots[s]; cur != nil && cur != it {
		if !it.canStackWith(cur) || cur.count >= itemtype.MaxStack {
			return NotEnoughRoom
		}
	}
	if s == SlotRight || s == SlotLeft {
		other := e.slots[otherHand(s)]
		if other != nil && other != it {
			if it.typ.Slot == itemtype.SlotTwoHand || other.typ.Slot == itemtype.SlotTwoHand {
				return NotEnoughRoom
			}
		}
	}
	return NoError
}

func (e *Equipment) hasCapacity(it *Item, count int) bool {
	if TopParent(it) == Holder(e) {
		return true
	}
	var w float64
	switch {
	case it.container != nil:
		w = it.Weight()
	case it.IsStackable():
		w = it.typ.Weight * float64(count)
	default:
		w = it.typ.Weight
	}
	return w <= e.FreeCapacity()
}

// QueryAdd implements Holder.
func (e *Equipment) QueryAdd(index int, thing Thing, count int, flags Flags, _ *Creature) ReturnValue {
	it := asItem(thing)
	if it == nil {
		return NotPossible
	}
	if flags.Has(FlagChildIsOwner) {
		// A worn container is asking; only the carried weight matters.
		if flags.Has(FlagNoLimit) || flags.Has(FlagIgnoreCapacity) || e.hasCapacity(it, count) {
			return NoError
		}
		return NotEnoughCapacity
	}
	if !it.IsPickupable() {
		return CannotPickup
	}
	if isWherever(index) || index == 0 {
		if _, ok := e.freeSlotFor(it, flags); !ok {
			return NotEnoughRoom
		}
	} else {
		s := EquipSlot(index)
		if !s.Valid() {
			return NotPossible
		}
		if rv := e.querySlot(s, it); rv != NoError {
			return rv
		}
	}
	if !flags.Has(FlagNoLimit) && !flags.Has(FlagIgnoreCapacity) && !e.hasCapacity(it, count) {
		return NotEnoughCapacity
	}
	return NoError
}

func (e *Equipment) freeSlotFor(it *Item, flags Flags) (EquipSlot, bool) {
	autoStack := !flags.Has(FlagIgnoreAutoStack)
	for s := slotFirst; s <= slotLast; s++ {
		cur := e.slots[s]
		if cur == nil && slotMatches(s, it.typ) && e.querySlot(s, it) == NoError {
			return s, true
		}
		if autoStack && cur != nil && cur != it && it.canStackWith(cur) && cur.count < itemtype.MaxStack {
			return s, true
		}
	}
	return 0, false
}

// QueryMaxCount implements Holder. Wherever counts free matching slots,
// partial stacks in slots and room in every worn container.
func (e *Equipment) QueryMaxCount(index int, thing Thing, count int, flags Flags) (int, ReturnValue) {
	it := asItem(thing)
	if it == nil {
		return 0, NotPossible
	}
	if flags.Has(FlagNoLimit) {
		return max(1, count), NoError
	}
	unit := 1
	if it.IsStackable() {
		unit = itemtype.MaxStack
	}

	n := 0
	if isWherever(index) || index == 0 {
		for s := slotFirst; s <= slotLast; s++ {
			cur := e.slots[s]
			switch {
			case cur == nil:
				if slotMatches(s, it.typ) && e.querySlot(s, it) == NoError {
					n += unit
				}
			case cur.container != nil:
				q, _ := cur.container.QueryMaxCount(IndexWherever, it, count, flags)
				n += q
				for child := range cur.container.Contents() {
					if child.container != nil {
						q, _ := child.container.QueryMaxCount(IndexWherever, it, count, flags)
						n += q
					}
				}
			case it.canStackWith(cur) && cur.count < itemtype.MaxStack:
				n += itemtype.MaxStack - cur.count
			}
		}
	} else if s := EquipSlot(index); s.Valid() {
		cur := e.slots[s]
		switch {
		case cur == nil:
			if e.querySlot(s, it) == NoError {
				n = unit
			}
		case it.canStackWith(cur) && cur.count < itemtype.MaxStack:
			n = itemtype.MaxStack - cur.count
		}
	}
	if n < count || n == 0 {
		return n, NotEnoughRoom
	}
	return n, NoError
}

// QueryRemove implements Holder.
func (e *Equipment) QueryRemove(thing Thing, count int, flags Flags, _ *Creature) ReturnValue {
	it := asItem(thing)
	if it == nil || e.IndexOf(it) < 0 {
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

// QueryDestination implements Holder. Wherever prefers a partial stack or a
// matching empty slot, then searches worn containers breadth first.
func (e *Equipment) QueryDestination(index int, thing Thing, flags Flags) (Holder, int, *Item) {
	it := asItem(thing)
	if it == nil {
		return e, index, nil
	}
	if !isWherever(index) && index != 0 {
		s := EquipSlot(index)
		cur := e.SlotItem(s)
		if cur != nil && cur.container != nil && cur != it {
			return cur.container, IndexWherever, nil
		}
		return e, index, cur
	}

	autoStack := it.IsStackable() && !flags.Has(FlagIgnoreAutoStack)
	var containers []*Container
	for s := slotFirst; s <= slotLast; s++ {
		cur := e.slots[s]
		if cur == nil {
			if slotMatches(s, it.typ) && e.querySlot(s, it) == NoError {
				return e, int(s), nil
			}
			continue
		}
		if cur == it {
			continue
		}
		if autoStack && it.canStackWith(cur) && cur.count < itemtype.MaxStack {
			return e, int(s), cur
		}
		if cur.container != nil {
			containers = append(containers, cur.container)
		}
	}
	for i := 0; i < len(containers); i++ {
		sub := containers[i]
		for j, child := range sub.children {
			if child == it {
				continue
			}
			if autoStack && it.canStackWith(child) && child.count < itemtype.MaxStack {
				return sub, j, child
			}
			if child.container != nil {
				containers = append(containers, child.container)
			}
		}
		if !sub.Full() && sub.item != it {
			return sub, IndexWherever, nil
		}
	}
	return e, IndexWherever, nil
}

// AddThing implements Holder. Wherever picks the first empty matching slot.
// Adding to an occupied slot does nothing.
func (e *Equipment) AddThing(index int, thing Thing) {
	it := asItem(thing)
	if it == nil {
		return
	}
	s := EquipSlot(index)
	if isWherever(index) || index == 0 {
		free, ok := e.freeSlotFor(it, FlagIgnoreAutoStack)
		if !ok {
			return
		}
		s, index = free, int(free)
	}
	if !s.Valid() || e.slots[s] != nil {
		return
	}
	it.parent = e
	e.slots[s] = it
	e.weight += it.Weight()
	e.world.deliver(e, NotifyAdd, index, it)
}

// UpdateThing implements Holder.
func (e *Equipment) UpdateThing(thing Thing, typeID uint16, count int) {
	it := asItem(thing)
	index := e.IndexOf(it)
	if index < 0 {
		return
	}
	t := e.world.types.Get(typeID)
	if t == nil {
		return
	}
	old := it.Weight()
	it.setType(t, count)
	e.weight += it.Weight() - old
	e.world.deliver(e, NotifyUpdate, index, it)
}

// ReplaceThing implements Holder.
func (e *Equipment) ReplaceThing(index int, thing Thing) {
	it := asItem(thing)
	s := EquipSlot(index)
	if it == nil || !s.Valid() || e.slots[s] == nil {
		return
	}
	replaced := e.slots[s]
	e.slots[s] = it
	it.parent = e
	e.weight += it.Weight() - replaced.Weight()
	replaced.parent = nil
	e.world.deliver(e, NotifyUpdate, index, it)
}

// RemoveThing implements Holder.
func (e *Equipment) RemoveThing(thing Thing, count int) {
	it := asItem(thing)
	index := e.IndexOf(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		old := it.Weight()
		it.setCount(it.count - count)
		e.weight += it.Weight() - old
		e.world.deliver(e, NotifyUpdate, index, it)
		return
	}
	e.weight -= it.Weight()
	e.slots[index] = nil
	it.parent = nil
	e.world.deliver(e, NotifyRemove, index, it)
}

// ThingAt implements Holder.
func (e *Equipment) ThingAt(index int) Thing {
	if it := e.SlotItem(EquipSlot(index)); it != nil {
		return it
	}
	return nil
}

// IndexOf implements Holder.
func (e *Equipment) IndexOf(thing Thing) int {
	it := asItem(thing)
	if it == nil {
		return -1
	}
	for s := slotFirst; s <= slotLast; s++ {
		if e.slots[s] == it {
			return int(s)
		}
	}
	return -1
}

// FirstIndex implements Holder.
func (e *Equipment) FirstIndex() int { return int(slotFirst) }

// LastIndex implements Holder.
func (e *Equipment) LastIndex() int { return int(slotLast) + 1 }

// ItemTypeCount implements Holder. Worn containers are searched at any depth.
func (e *Equipment) ItemTypeCount(typeID uint16, subtype int) int {
	n := 0
	for s := slotFirst; s <= slotLast; s++ {
		it := e.slots[s]
		if it == nil {
			continue
		}
		if it.typ.ID == typeID {
			n += countMatches(it, subtype)
		}
		if it.container != nil {
			n += it.container.DeepItemTypeCount(typeID, subtype)
		}
	}
	return n
}

// AllItemTypeCounts implements Holder. Worn containers are searched at any depth.
func (e *Equipment) AllItemTypeCounts(counts map[uint16]int) map[uint16]int {
	if counts == nil {
		counts = make(map[uint16]int)
	}
	for s := slotFirst; s <= slotLast; s++ {
		it := e.slots[s]
		if it == nil {
			continue
		}
		counts[it.typ.ID] += it.Count()
		if it.container != nil {
			for child := range it.container.Contents() {
				counts[child.typ.ID] += child.Count()
			}
		}
	}
	return counts
}

// PostAddNotification implements Holder.
func (e *Equipment) PostAddNotification(thing Thing, oldParent Holder, index int, link Link) {
	e.world.runHooks(true, HookEvent{Thing: thing, Holder: e, Other: oldParent, Index: index, Link: link})
}

// PostRemoveNotification implements Holder.
func (e *Equipment) PostRemoveNotification(thing Thing, newParent Holder, index int, link Link) {
	e.world.runHooks(false, HookEvent{Thing: thing, Holder: e, Other: newParent, Index: index, Link: link})
}
