// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"github.com/holomush/itemcore/internal/itemtype"
)

// Container is the holder side of a container item. Children are ordered
// newest first; index 0 is the most recently added item.
type Container struct {
	item     *Item
	children []*Item
	capacity int
	// weight is the base weight of the container item plus the weight of
	// every descendant, maintained incrementally.
	weight float64
}

func newContainer(it *Item, capacity int) *Container {
	return &Container{item: it, capacity: capacity, weight: it.baseWeight()}
}

// Item returns the item this container belongs to.
func (c *Container) Item() *Item { return c.item }

// Capacity returns the number of slots.
func (c *Container) Capacity() int { return c.capacity }

// Size returns the number of direct children.
func (c *Container) Size() int { return len(c.children) }

// Empty reports whether the container holds nothing.
func (c *Container) Empty() bool { return len(c.children) == 0 }

// Full reports whether every slot is taken.
func (c *Container) Full() bool { return len(c.children) >= c.capacity }

// Weight returns the aggregate weight of the container and its contents.
func (c *Container) Weight() float64 { return c.weight }

// Items returns a copy of the direct children.
func (c *Container) Items() []*Item {
	out := make([]*Item, len(c.children))
	copy(out, c.children)
	return out
}

// Parent returns the holder of the container item.
func (c *Container) Parent() Holder { return c.item.parent }

// ParentContainer returns the container holding this one, or nil.
func (c *Container) ParentContainer() *Container {
	pc, _ := c.item.parent.(*Container)
	return pc
}

// QueryAdd implements Holder.
func (c *Container) QueryAdd(index int, thing Thing, count int, flags Flags, actor *Creature) ReturnValue {
	if flags.Has(FlagChildIsOwner) {
		// A nested container already checked the request.
		return NoError
	}
	it := asItem(thing)
	if it == nil {
		return NotPossible
	}
	if !it.IsPickupable() {
		return CannotPickup
	}
	if it == c.item {
		return ThisIsImpossible
	}
	if self := it.asHolder(); self != nil {
		for h := c.Parent(); h != nil; h = h.Parent() {
			if h == self {
				return ThisIsImpossible
			}
		}
	}
	if isWherever(index) && c.Full() && !flags.Has(FlagNoLimit) {
		return ContainerNotEnoughRoom
	}
	if top := TopParent(c.item); top != nil && top != Holder(c) {
		return top.QueryAdd(IndexWherever, it, count, flags|FlagChildIsOwner, actor)
	}
	return NoError
}

// QueryMaxCount implements Holder.
func (c *Container) QueryMaxCount(index int, thing Thing, count int, flags Flags) (int, ReturnValue) {
	it := asItem(thing)
	if it == nil {
		return 0, NotPossible
	}
	if flags.Has(FlagNoLimit) {
		return max(1, count), NoError
	}
	free := max(c.capacity-len(c.children), 0)
	if !it.IsStackable() {
		if free == 0 {
			return 0, ContainerNotEnoughRoom
		}
		return free, NoError
	}

	partial := 0
	if isWherever(index) {
		if !flags.Has(FlagIgnoreAutoStack) {
			for i, child := range c.children {
				if it.canStackWith(child) && child.count < itemtype.MaxStack &&
					c.QueryAdd(i, it, count, flags, nil) == NoError {
					partial += itemtype.MaxStack - child.count
				}
			}
		}
	} else if dest := c.itemAt(index); it.canStackWith(dest) && dest.count < itemtype.MaxStack {
		if c.QueryAdd(index, it, count, flags, nil) == NoError {
			partial = itemtype.MaxStack - dest.count
		}
	}

	n := free*itemtype.MaxStack + partial
	if n < count {
		return n, ContainerNotEnoughRoom
	}
	return n, NoError
}

// QueryRemove implements Holder.
func (c *Container) QueryRemove(thing Thing, count int, flags Flags, _ *Creature) ReturnValue {
	it := asItem(thing)
	if it == nil || c.IndexOf(it) < 0 {
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

// QueryDestination implements Holder.
func (c *Container) QueryDestination(index int, thing Thing, flags Flags) (Holder, int, *Item) {
	switch {
	case index == IndexMoveUp:
		if pc := c.ParentContainer(); pc != nil {
			return pc, IndexWherever, nil
		}
		return c, IndexWherever, nil
	case index == IndexAutoPlace, index >= c.capacity, index < 0:
		// Clients address slots of the largest open container, so an index
		// past our capacity means wherever.
		index = IndexWherever
	}

	it := asItem(thing)
	if it == nil {
		return c, index, nil
	}

	var dest *Item
	if !isWherever(index) {
		dest = c.itemAt(index)
	}

	autoStack := it.IsStackable() && it.parent != Holder(c) && !flags.Has(FlagIgnoreAutoStack)
	if autoStack && (dest == nil || it.canStackWith(dest)) {
		if dest != nil && dest.count < itemtype.MaxStack {
			return c, index, dest
		}
		for i, child := range c.children {
			if it.canStackWith(child) && child.count < itemtype.MaxStack {
				return c, i, child
			}
		}
	}

	if dest != nil {
		if sub := dest.container; sub != nil && dest != it {
			return sub, IndexWherever, nil
		}
		return c, index, dest
	}
	return c, IndexWherever, nil
}

// AddThing implements Holder. The item is always inserted at the front.
func (c *Container) AddThing(_ int, thing Thing) {
	it := asItem(thing)
	if it == nil {
		return
	}
	it.parent = c
	c.children = append(c.children, nil)
	copy(c.children[1:], c.children)
	c.children[0] = it
	c.updateWeight(it.Weight())
	c.item.world.deliver(c, NotifyAdd, 0, it)
}

// AddItemBack appends an item without notifying anyone. It is used when
// rebuilding containers from storage.
func (c *Container) AddItemBack(it *Item) {
	it.parent = c
	c.children = append(c.children, it)
	c.updateWeight(it.Weight())
}

// UpdateThing implements Holder.
func (c *Container) UpdateThing(thing Thing, typeID uint16, count int) {
	it := asItem(thing)
	index := c.IndexOf(it)
	if index < 0 {
		return
	}
	t := c.item.world.types.Get(typeID)
	if t == nil {
		return
	}
	old := it.Weight()
	it.setType(t, count)
	c.updateWeight(it.Weight() - old)
	c.item.world.deliver(c, NotifyUpdate, index, it)
}

// ReplaceThing implements Holder.
func (c *Container) ReplaceThing(index int, thing Thing) {
	it := asItem(thing)
	replaced := c.itemAt(index)
	if it == nil || replaced == nil {
		return
	}
	c.children[index] = it
	it.parent = c
	c.updateWeight(it.Weight() - replaced.Weight())
	replaced.parent = nil
	c.item.world.deliver(c, NotifyUpdate, index, it)
}

// RemoveThing implements Holder.
func (c *Container) RemoveThing(thing Thing, count int) {
	it := asItem(thing)
	index := c.IndexOf(it)
	if index < 0 {
		return
	}
	if it.IsStackable() && count < it.count {
		old := it.Weight()
		it.setCount(it.count - count)
		c.updateWeight(it.Weight() - old)
		c.item.world.deliver(c, NotifyUpdate, index, it)
		return
	}
	c.updateWeight(-it.Weight())
	c.children = append(c.children[:index], c.children[index+1:]...)
	it.parent = nil
	c.item.world.deliver(c, NotifyRemove, index, it)
}

// updateWeight applies a weight delta here, in every ancestor container and
// in the equipment carrying the outermost one.
func (c *Container) updateWeight(delta float64) {
	cur := c
	for {
		cur.weight += delta
		pc := cur.ParentContainer()
		if pc == nil {
			break
		}
		cur = pc
	}
	if e, ok := cur.Parent().(*Equipment); ok {
		e.weight += delta
	}
}

func (c *Container) itemAt(index int) *Item {
	if index < 0 || index >= len(c.children) {
		return nil
	}
	return c.children[index]
}

// ThingAt implements Holder.
func (c *Container) ThingAt(index int) Thing {
	if it := c.itemAt(index); it != nil {
		return it
	}
	return nil
}

// IndexOf implements Holder.
func (c *Container) IndexOf(thing Thing) int {
	it := asItem(thing)
	if it == nil {
		return -1
	}
	for i, child := range c.children {
		if child == it {
			return i
		}
	}
	return -1
}

// FirstIndex implements Holder.
func (c *Container) FirstIndex() int { return 0 }

// LastIndex implements Holder.
func (c *Container) LastIndex() int { return len(c.children) }

// ItemTypeCount implements Holder. Only direct children are counted; see
// DeepItemTypeCount.
func (c *Container) ItemTypeCount(typeID uint16, subtype int) int {
	n := 0
	for _, child := range c.children {
		if child.typ.ID == typeID {
			n += countMatches(child, subtype)
		}
	}
	return n
}

// AllItemTypeCounts implements Holder.
func (c *Container) AllItemTypeCounts(counts map[uint16]int) map[uint16]int {
	if counts == nil {
		counts = make(map[uint16]int)
	}
	for _, child := range c.children {
		counts[child.typ.ID] += child.Count()
	}
	return counts
}

// PostAddNotification implements Holder. The notification is forwarded to
// the carrying creature, or to the tile under the top container.
func (c *Container) PostAddNotification(thing Thing, oldParent Holder, index int, _ Link) {
	target, link := c.forwardTarget()
	if target != nil {
		target.PostAddNotification(thing, oldParent, index, link)
	}
}

// PostRemoveNotification implements Holder.
func (c *Container) PostRemoveNotification(thing Thing, newParent Holder, index int, _ Link) {
	target, link := c.forwardTarget()
	if target != nil {
		target.PostRemoveNotification(thing, newParent, index, link)
	}
}

func (c *Container) forwardTarget() (Holder, Link) {
	top := TopParent(c.item)
	switch {
	case top == nil:
		return nil, LinkOwner
	case isEquipment(top):
		return top, LinkTopParent
	case top == Holder(c):
		return c.Parent(), LinkNear
	default:
		return top, LinkParent
	}
}

func isEquipment(h Holder) bool {
	_, ok := h.(*Equipment)
	return ok
}
