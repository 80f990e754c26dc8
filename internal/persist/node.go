// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package persist snapshots item trees and converts them to and from the
// belongings byte format.
package persist

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/world"
)

// Error codes returned by this package.
const (
	CodeBadMagic      = "PERSIST_BAD_MAGIC"
	CodeTruncated     = "PERSIST_TRUNCATED"
	CodeTooDeep       = "PERSIST_TOO_DEEP"
	CodeTrailingBytes = "PERSIST_TRAILING_BYTES"
	CodeNotContainer  = "PERSIST_NOT_CONTAINER"
)

// MaxDepth bounds container nesting in decoded and restored trees.
const MaxDepth = 64

// Node is a detached copy of one item and everything inside it. Nodes share
// nothing with the live world and may be handed to other goroutines.
type Node struct {
	Serial   ulid.ULID
	TypeID   uint16
	Count    uint8
	UniqueID uint16
	ActionID uint16
	Children []Node
}

// Len returns the number of nodes in the tree rooted at n.
func (n Node) Len() int {
	total := 1
	for _, c := range n.Children {
		total += c.Len()
	}
	return total
}

// Snapshot deep-copies the tree rooted at it. Children keep container order.
func Snapshot(it *world.Item) Node {
	n := Node{
		Serial:   it.Serial(),
		TypeID:   it.TypeID(),
		Count:    uint8(it.Count()),
		UniqueID: it.UniqueID(),
		ActionID: it.ActionID(),
	}
	if c := it.Container(); c != nil && !c.Empty() {
		items := c.Items()
		n.Children = make([]Node, len(items))
		for i, child := range items {
			n.Children[i] = Snapshot(child)
		}
	}
	return n
}

// SnapshotEquipment snapshots every occupied slot.
func SnapshotEquipment(eq *world.Equipment) map[world.EquipSlot]Node {
	roots := make(map[world.EquipSlot]Node)
	for _, s := range world.Slots() {
		if it := eq.SlotItem(s); it != nil {
			roots[s] = Snapshot(it)
		}
	}
	return roots
}

// Restore creates live items for the tree rooted at n. Children are appended
// in order without notifications. On failure nothing created so far
// survives.
func Restore(w *world.World, n Node) (*world.Item, error) {
	return restore(w, n, 0)
}

func restore(w *world.World, n Node, depth int) (*world.Item, error) {
	if depth >= MaxDepth {
		return nil, oops.Code(CodeTooDeep).With("max_depth", MaxDepth).Errorf("item tree is too deep")
	}
	it, err := w.CreateItemWithSerial(n.TypeID, max(int(n.Count), 1), n.Serial)
	if err != nil {
		return nil, oops.With("serial", n.Serial.String()).Wrap(err)
	}
	if n.UniqueID != 0 {
		if err := it.SetUniqueID(n.UniqueID); err != nil {
			w.Release(it)
			return nil, oops.With("serial", n.Serial.String()).Wrap(err)
		}
	}
	it.SetActionID(n.ActionID)

	if len(n.Children) == 0 {
		return it, nil
	}
	c := it.Container()
	if c == nil {
		w.Release(it)
		return nil, oops.Code(CodeNotContainer).
			With("serial", n.Serial.String()).
			With("type_id", n.TypeID).
			Errorf("item of type %d cannot hold children", n.TypeID)
	}
	for _, cn := range n.Children {
		child, err := restore(w, cn, depth+1)
		if err != nil {
			w.Release(it)
			return nil, err
		}
		c.AddItemBack(child)
	}
	return it, nil
}

// RestoreEquipment restores a set of slot trees into empty equipment.
// Slots restored before a failure are left in place.
func RestoreEquipment(w *world.World, eq *world.Equipment, roots map[world.EquipSlot]Node) error {
	for s := range roots {
		if !s.Valid() {
			return oops.Code(world.CodeBadSlot).With("slot", int(s)).Errorf("invalid slot %d", s)
		}
	}
	for _, s := range world.Slots() {
		n, ok := roots[s]
		if !ok {
			continue
		}
		it, err := Restore(w, n)
		if err != nil {
			return oops.With("slot", s.String()).Wrap(err)
		}
		if err := eq.Restore(s, it); err != nil {
			w.Release(it)
			return err
		}
	}
	return nil
}
