// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/itemtype"
)

// Thing is anything a holder can own: an item or a creature.
// A thing has at most one holder at a time.
type Thing interface {
	// Parent returns the current holder, or nil.
	Parent() Holder
	// IsRemoved reports whether the thing has been destroyed.
	IsRemoved() bool

	setParent(h Holder)
}

// Item is a placeable world object.
type Item struct {
	world     *World
	typ       *itemtype.Type
	handle    Handle
	serial    ulid.ULID
	count     int
	uniqueID  uint16
	actionID  uint16
	parent    Holder
	removed   bool
	container *Container
}

// Handle returns the arena handle of the item.
func (it *Item) Handle() Handle { return it.handle }

// Serial returns the persistent identity of the item.
func (it *Item) Serial() ulid.ULID { return it.serial }

// Type returns the item type.
func (it *Item) Type() *itemtype.Type { return it.typ }

// TypeID returns the item type id.
func (it *Item) TypeID() uint16 { return it.typ.ID }

// IsStackable reports whether items of this type merge into stacks.
func (it *Item) IsStackable() bool { return it.typ.Stackable }

// IsPickupable reports whether the item can be carried.
func (it *Item) IsPickupable() bool { return it.typ.Pickupable }

// IsMovable reports whether the item can be relocated without force.
func (it *Item) IsMovable() bool { return it.typ.Movable() }

// Count returns the stack count, which is always 1 for non-stackable items.
func (it *Item) Count() int {
	if !it.typ.Stackable {
		return 1
	}
	return it.count
}

// UniqueID returns the unique id, or 0 when none is set.
func (it *Item) UniqueID() uint16 { return it.uniqueID }

// ActionID returns the action id, or 0 when none is set.
func (it *Item) ActionID() uint16 { return it.actionID }

// SetActionID sets the action id. Zero clears it.
func (it *Item) SetActionID(id uint16) { it.actionID = id }

// SetUniqueID assigns a world-wide unique id in [MinUniqueID, MaxUniqueID].
// Zero clears the current id.
func (it *Item) SetUniqueID(id uint16) error {
	if id == it.uniqueID {
		return nil
	}
	if id != 0 && id < MinUniqueID {
		return oops.Code(CodeUniqueRange).
			With("unique_id", id).
			Errorf("unique id %d outside [%d, %d]", id, MinUniqueID, MaxUniqueID)
	}
	if id != 0 {
		if other, ok := it.world.uniques[id]; ok && other != it {
			return oops.Code(CodeUniqueTaken).With("unique_id", id).Errorf("unique id %d already in use", id)
		}
	}
	if it.uniqueID != 0 {
		delete(it.world.uniques, it.uniqueID)
	}
	it.uniqueID = id
	if id != 0 {
		it.world.uniques[id] = it
	}
	return nil
}

// Parent returns the holder of the item, or nil.
func (it *Item) Parent() Holder { return it.parent }

// IsRemoved reports whether the item was released.
func (it *Item) IsRemoved() bool { return it.removed }

func (it *Item) setParent(h Holder) { it.parent = h }

// Container returns the holder side of a container item, or nil.
func (it *Item) Container() *Container { return it.container }

// Weight returns the weight of the item including everything it holds.
func (it *Item) Weight() float64 {
	if it.container != nil {
		return it.container.weight
	}
	return it.baseWeight()
}

func (it *Item) baseWeight() float64 {
	if it.typ.Stackable && it.count > 1 {
		return it.typ.Weight * float64(it.count)
	}
	return it.typ.Weight
}

// canStackWith reports whether other can absorb units of it.
func (it *Item) canStackWith(other *Item) bool {
	if other == nil || other == it || !it.typ.Stackable {
		return false
	}
	return other.typ == it.typ && other.uniqueID == 0 && it.uniqueID == 0 && other.actionID == it.actionID
}

// mergeRoom returns how many units of it other can still absorb.
func (it *Item) mergeRoom(other *Item) int {
	if !it.canStackWith(other) {
		return 0
	}
	return max(itemtype.MaxStack-other.count, 0)
}

// asHolder returns the container side of the item as a Holder, or a nil
// interface for plain items.
func (it *Item) asHolder() Holder {
	if it.container == nil {
		return nil
	}
	return it.container
}

// setType changes the type and count in place. Ancestors are not
// reweighed; the caller accounts for the weight difference.
func (it *Item) setType(t *itemtype.Type, count int) {
	oldBase := it.baseWeight()
	if it.container != nil && t != it.typ {
		// A new container type brings its own slot count; children beyond
		// it stay until removed.
		it.container.capacity = t.Capacity
	}
	it.typ = t
	if t.Stackable {
		it.count = count
	} else {
		it.count = 1
	}
	if it.container != nil {
		it.container.weight += it.baseWeight() - oldBase
	}
}

func (it *Item) setCount(n int) { it.count = n }
