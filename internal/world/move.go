// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/itemtype"
)

// maxDestinationHops bounds how often QueryDestination may redirect a move.
const maxDestinationHops = 16

// MoveItem moves count units of it from one holder to another. The
// destination is resolved first, then the add, capacity and removal queries
// run; only if all pass is anything mutated. Stacks merge into a partner at
// the destination when possible. A partial move happens when the destination
// accepts fewer units than requested.
//
// The returned item is the item now at the destination: it itself, a split
// off stack, or the stack it merged into. Moving an item onto itself is a
// silent no-op.
func (w *World) MoveItem(from, to Holder, index int, it *Item, count int, flags Flags, actor *Creature) (*Item, ReturnValue) {
	moved, rv := w.moveItem(from, to, index, it, count, flags, actor)
	w.recorder.RecordMove(rv)
	if rv != NoError {
		w.logger.Debug("move rejected",
			"result", rv.String(),
			"from", Describe(from),
			"to", Describe(to),
			"count", count)
	}
	return moved, rv
}

func (w *World) moveItem(from, to Holder, index int, it *Item, count int, flags Flags, actor *Creature) (*Item, ReturnValue) {
	if from == nil || to == nil || it == nil || it.removed || it.parent != from {
		return nil, NotPossible
	}
	if !it.IsStackable() {
		count = 1
	}
	if count <= 0 {
		return nil, NotPossible
	}

	var toItem *Item
	for range maxDestinationHops {
		next, nextIndex, dest := to.QueryDestination(index, it, flags)
		index, toItem = nextIndex, dest
		if next == to {
			break
		}
		to = next
	}
	if toItem == it {
		return it, NoError
	}

	if rv := to.QueryAdd(index, it, count, flags, actor); rv != NoError {
		return nil, rv
	}
	maxCount, rv := to.QueryMaxCount(index, it, count, flags)
	if rv != NoError && maxCount == 0 {
		return nil, rv
	}
	m := 1
	if it.IsStackable() {
		m = min(count, maxCount)
	}
	if rv := from.QueryRemove(it, m, flags, actor); rv != NoError {
		return nil, rv
	}

	fromIndex := from.IndexOf(it)
	from.RemoveThing(it, m)

	moveItem := it
	var updated *Item
	release := false
	if it.IsStackable() {
		n := min(it.mergeRoom(toItem), m)
		if n > 0 {
			to.UpdateThing(toItem, toItem.typ.ID, toItem.count+n)
			updated = toItem
		}
		switch rest := m - n; {
		case rest == 0:
			moveItem = nil
			release = it.parent == nil
		case it.parent == nil:
			// The whole stack left the source; keep its identity.
			it.setCount(rest)
		default:
			moveItem = w.Clone(it)
			moveItem.setCount(rest)
		}
	}

	if moveItem != nil {
		to.AddThing(index, moveItem)
	}
	if fromIndex >= 0 {
		from.PostRemoveNotification(it, to, fromIndex, LinkOwner)
	}
	if moveItem != nil {
		if i := to.IndexOf(moveItem); i >= 0 {
			to.PostAddNotification(moveItem, from, i, LinkOwner)
		}
	}
	if updated != nil {
		if i := to.IndexOf(updated); i >= 0 {
			to.PostAddNotification(updated, from, i, LinkOwner)
		}
	}
	if release {
		w.Release(it)
	}
	if moveItem != nil {
		return moveItem, NoError
	}
	return updated, NoError
}

// AddItem places an unowned item into a holder. Stackable items merge into
// a partial stack first and the remainder is placed wherever it fits. The
// returned remainder is the number of units that could not be placed after
// a merge; the item then keeps that count and stays unowned. An item that
// merges completely is released.
//
// With test set only the queries run.
func (w *World) AddItem(to Holder, it *Item, index int, flags Flags, test bool) (int, ReturnValue) {
	if to == nil || it == nil || it.removed || it.parent != nil {
		return 0, NotPossible
	}
	dest, index, toItem := to.QueryDestination(index, it, flags)
	if rv := dest.QueryAdd(index, it, it.Count(), flags, nil); rv != NoError {
		return 0, rv
	}
	// Check the whole amount against the original holder; the resolved
	// destination may only take part of it.
	maxCount, rv := to.QueryMaxCount(IndexWherever, it, it.Count(), flags)
	if rv != NoError {
		return 0, rv
	}
	if test {
		return 0, NoError
	}

	n := min(it.mergeRoom(toItem), it.count, maxCount)
	if n <= 0 {
		dest.AddThing(index, it)
		if i := dest.IndexOf(it); i >= 0 {
			dest.PostAddNotification(it, nil, i, LinkOwner)
		}
		return 0, NoError
	}

	dest.UpdateThing(toItem, toItem.typ.ID, toItem.count+n)
	if i := dest.IndexOf(toItem); i >= 0 {
		dest.PostAddNotification(toItem, nil, i, LinkOwner)
	}
	rest := it.count - n
	if rest == 0 {
		w.Release(it)
		return 0, NoError
	}
	// Every pass merges at least one unit, so this terminates.
	it.setCount(rest)
	remainder, rv := w.AddItem(to, it, IndexWherever, flags, false)
	if rv != NoError {
		return rest, NoError
	}
	return remainder, NoError
}

// CreateItems creates count units of a type inside a holder, splitting
// stackable types into full stacks. Room for the whole amount is checked
// before anything is created. It returns the new items that ended up in the
// holder; units merged into existing stacks are not represented.
func (w *World) CreateItems(to Holder, typeID uint16, count int, flags Flags) ([]*Item, ReturnValue, error) {
	t := w.types.Get(typeID)
	if t == nil {
		return nil, NotPossible, oops.Code(CodeUnknownType).With("type_id", typeID).Errorf("unknown item type %d", typeID)
	}
	if count <= 0 {
		return nil, NotPossible, oops.Code(CodeBadCount).With("count", count).Errorf("count must be positive")
	}
	unit := 1
	if t.Stackable {
		unit = itemtype.MaxStack
	}

	it, err := w.CreateItem(typeID, min(count, unit))
	if err != nil {
		return nil, NotPossible, err
	}
	if rv := w.RoomFor(to, it, count, flags); rv != NoError {
		w.Release(it)
		return nil, rv, nil
	}

	var placed []*Item
	remaining := count
	for {
		remaining -= it.Count()
		rest, rv := w.AddItem(to, it, IndexWherever, flags, false)
		if rv != NoError || rest > 0 {
			w.logger.Warn("item creation stopped short",
				"type_id", typeID,
				"requested", count,
				"missing", remaining+rest,
				"result", rv.String())
			if it.parent == nil {
				w.Release(it)
			}
			if rv == NoError {
				rv = NotEnoughRoom
			}
			return placed, rv, nil
		}
		if !it.removed {
			placed = append(placed, it)
		}
		if remaining <= 0 {
			return placed, NoError, nil
		}
		if it, err = w.CreateItem(typeID, min(remaining, unit)); err != nil {
			return placed, NotPossible, err
		}
	}
}

// RoomFor reports whether to can take count units shaped like probe, which
// must be unowned. Nothing is changed.
func (w *World) RoomFor(to Holder, probe *Item, count int, flags Flags) ReturnValue {
	dest, index, _ := to.QueryDestination(IndexWherever, probe, flags)
	if rv := dest.QueryAdd(index, probe, count, flags, nil); rv != NoError {
		return rv
	}
	n, rv := to.QueryMaxCount(IndexWherever, probe, count, flags)
	if rv != NoError {
		return rv
	}
	if n < count {
		return NotEnoughRoom
	}
	return NoError
}

// RemoveItem removes count units of it from its holder, or the whole stack
// with CountAll. Fixed items can be removed. Fully removed items are
// released. With test set only the query runs.
func (w *World) RemoveItem(it *Item, count int, flags Flags, test bool) ReturnValue {
	if it == nil || it.removed || it.parent == nil {
		return NotPossible
	}
	p := it.parent
	if count == CountAll {
		count = it.Count()
	}
	if rv := p.QueryRemove(it, count, flags|FlagIgnoreNotMovable, nil); rv != NoError {
		return rv
	}
	if test {
		return NoError
	}
	index := p.IndexOf(it)
	p.RemoveThing(it, count)
	p.PostRemoveNotification(it, nil, index, LinkOwner)
	if it.parent == nil {
		w.Release(it)
	}
	return NoError
}

// RemoveItemOfType removes count units of a type from a holder and every
// container inside it. Nothing is removed unless the full count is present.
// A match nested in another match is not counted: removing the outer one
// takes it along.
func (w *World) RemoveItemOfType(h Holder, typeID uint16, count int) ReturnValue {
	if h == nil || count <= 0 {
		return NotPossible
	}
	var found []*Item
	matched := make(map[*Container]bool)
	total := 0
	collect := func(it *Item) {
		if it.typ.ID != typeID || insideAny(it, matched) {
			return
		}
		found = append(found, it)
		total += it.Count()
		if it.container != nil {
			matched[it.container] = true
		}
	}
	for i := h.FirstIndex(); i < h.LastIndex(); i++ {
		it := asItem(h.ThingAt(i))
		if it == nil {
			continue
		}
		collect(it)
		if c := it.container; c != nil {
			for child := range c.Contents() {
				collect(child)
			}
		}
	}
	if total < count {
		return NotPossible
	}
	for _, it := range found {
		if count == 0 {
			break
		}
		if it.removed || it.parent == nil {
			// A hook removed it first.
			continue
		}
		n := min(count, it.Count())
		if rv := w.RemoveItem(it, n, 0, false); rv != NoError {
			return rv
		}
		count -= n
	}
	if count > 0 {
		return NotPossible
	}
	return NoError
}

// insideAny reports whether one of it's ancestors is in set.
func insideAny(it *Item, set map[*Container]bool) bool {
	if len(set) == 0 {
		return false
	}
	for h := it.parent; h != nil; h = h.Parent() {
		if c, ok := h.(*Container); ok && set[c] {
			return true
		}
	}
	return false
}

// TransformItem changes the type and count of a held item. When the change
// keeps the item a container or a plain item it is updated in place;
// otherwise a new item replaces it and it is released along with anything
// it held. A stackable target with a count of zero removes the item.
func (w *World) TransformItem(it *Item, typeID uint16, count int) (*Item, ReturnValue) {
	if it == nil || it.removed || it.parent == nil {
		return nil, NotPossible
	}
	t := w.types.Get(typeID)
	if t == nil {
		return nil, NotPossible
	}
	if t.Stackable {
		if count <= 0 {
			return nil, w.RemoveItem(it, CountAll, 0, false)
		}
		if count > itemtype.MaxStack {
			return nil, NotPossible
		}
	} else {
		count = 1
	}

	p := it.parent
	if t.Container == (it.container != nil) {
		p.UpdateThing(it, typeID, count)
		return it, NoError
	}

	repl, err := w.CreateItem(typeID, count)
	if err != nil {
		return nil, NotPossible
	}
	repl.actionID = it.actionID
	if uid := it.uniqueID; uid != 0 {
		_ = it.SetUniqueID(0)
		_ = repl.SetUniqueID(uid)
	}
	index := p.IndexOf(it)
	p.ReplaceThing(index, repl)
	p.PostAddNotification(repl, p, index, LinkOwner)
	p.PostRemoveNotification(it, p, index, LinkOwner)
	w.Release(it)
	return repl, NoError
}
