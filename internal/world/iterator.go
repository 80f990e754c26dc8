// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import "iter"

// ContentIterator walks a container and every container nested in it.
// Nested containers are queued when their item is passed and only if they
// are non-empty at that moment. An iterator cannot be restarted.
type ContentIterator struct {
	over []*Container
	pos  int
}

// Iterator returns a fresh iterator over the contents of c.
func (c *Container) Iterator() *ContentIterator {
	ci := &ContentIterator{}
	if len(c.children) > 0 {
		ci.over = []*Container{c}
	}
	return ci
}

// Next returns the next item, or false when the walk is complete.
func (ci *ContentIterator) Next() (*Item, bool) {
	for len(ci.over) > 0 {
		cur := ci.over[0]
		if ci.pos < len(cur.children) {
			it := cur.children[ci.pos]
			ci.pos++
			if sub := it.container; sub != nil && len(sub.children) > 0 {
				ci.over = append(ci.over, sub)
			}
			return it, true
		}
		ci.over = ci.over[1:]
		ci.pos = 0
	}
	return nil, false
}

// Contents returns a range-over-func sequence backed by a new iterator.
func (c *Container) Contents() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		ci := c.Iterator()
		for it, ok := ci.Next(); ok; it, ok = ci.Next() {
			if !yield(it) {
				return
			}
		}
	}
}

// ItemHoldingCount returns the number of items held at any depth.
func (c *Container) ItemHoldingCount() int {
	n := 0
	for range c.Contents() {
		n++
	}
	return n
}

// IsHoldingItem reports whether it is held at any depth.
func (c *Container) IsHoldingItem(it *Item) bool {
	for child := range c.Contents() {
		if child == it {
			return true
		}
	}
	return false
}

// DeepItemTypeCount counts units of a type held at any depth.
func (c *Container) DeepItemTypeCount(typeID uint16, subtype int) int {
	n := 0
	for child := range c.Contents() {
		if child.typ.ID == typeID {
			n += countMatches(child, subtype)
		}
	}
	return n
}
