// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package itemtype holds the read-only table of item types consulted by the
// containment engine for capacity defaults, stacking and weight.
package itemtype

// Slot names the equipment slot a type can be dressed in.
type Slot string

// Equipment slot names accepted in type files.
const (
	SlotNone     Slot = ""
	SlotHead     Slot = "head"
	SlotNecklace Slot = "necklace"
	SlotBackpack Slot = "backpack"
	SlotArmor    Slot = "armor"
	SlotHand     Slot = "hand"
	SlotTwoHand  Slot = "two-hand"
	SlotLegs     Slot = "legs"
	SlotFeet     Slot = "feet"
	SlotRing     Slot = "ring"
	SlotAmmo     Slot = "ammo"
)

// Valid reports whether s is a known slot name.
func (s Slot) Valid() bool {
	switch s {
	case SlotNone, SlotHead, SlotNecklace, SlotBackpack, SlotArmor, SlotHand,
		SlotTwoHand, SlotLegs, SlotFeet, SlotRing, SlotAmmo:
		return true
	}
	return false
}

// MaxStack is the largest count a single stack of a stackable type may hold.
const MaxStack = 100

// Type describes one kind of item.
type Type struct {
	ID         uint16  `yaml:"id" json:"id" jsonschema:"minimum=1"`
	Name       string  `yaml:"name" json:"name" jsonschema:"minLength=1,pattern=^[a-z][a-z0-9_]*$"`
	Weight     float64 `yaml:"weight" json:"weight" jsonschema:"minimum=0"`
	Stackable  bool    `yaml:"stackable,omitempty" json:"stackable,omitempty"`
	Pickupable bool    `yaml:"pickupable,omitempty" json:"pickupable,omitempty"`
	// Fixed types cannot be moved once placed.
	Fixed     bool `yaml:"fixed,omitempty" json:"fixed,omitempty"`
	Container bool `yaml:"container,omitempty" json:"container,omitempty"`
	// Capacity is the default number of slots of a container type.
	Capacity int  `yaml:"capacity,omitempty" json:"capacity,omitempty" jsonschema:"minimum=0,maximum=1000"`
	Slot     Slot `yaml:"slot,omitempty" json:"slot,omitempty" jsonschema:"enum=head,enum=necklace,enum=backpack,enum=armor,enum=hand,enum=two-hand,enum=legs,enum=feet,enum=ring,enum=ammo"`
}

// Movable reports whether items of this type can be relocated.
func (t *Type) Movable() bool {
	return !t.Fixed
}
