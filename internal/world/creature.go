// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// Creature is a thing standing on a tile. It carries items in its
// equipment and may have an observer that receives its client updates.
type Creature struct {
	id        string
	name      string
	parent    Holder
	removed   bool
	equipment *Equipment
	observer  Observer
}

// NewCreature creates a creature with empty equipment and the given carry
// capacity.
func (w *World) NewCreature(id, name string, capacity float64) *Creature {
	c := &Creature{id: id, name: name}
	c.equipment = &Equipment{world: w, owner: c, capacity: capacity}
	return c
}

// ID returns the creature id.
func (c *Creature) ID() string { return c.id }

// Name returns the creature name.
func (c *Creature) Name() string { return c.name }

// Equipment returns the holder for the creature's worn items.
func (c *Creature) Equipment() *Equipment { return c.equipment }

// Observer returns the attached observer, or nil.
func (c *Creature) Observer() Observer { return c.observer }

// SetObserver attaches an observer. Nil detaches it.
func (c *Creature) SetObserver(o Observer) { c.observer = o }

// Tile returns the tile the creature stands on, or nil.
func (c *Creature) Tile() *Tile {
	t, _ := c.parent.(*Tile)
	return t
}

// Parent implements Thing.
func (c *Creature) Parent() Holder { return c.parent }

// IsRemoved implements Thing.
func (c *Creature) IsRemoved() bool { return c.removed }

// Remove takes the creature off its tile and marks it removed.
func (c *Creature) Remove() {
	if c.parent != nil {
		c.parent.RemoveThing(c, 1)
	}
	c.removed = true
}

func (c *Creature) setParent(h Holder) { c.parent = h }
